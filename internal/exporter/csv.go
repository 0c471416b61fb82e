package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Separator used by every export; the downstream agronomic systems consume
// semicolon-delimited files.
const Separator = ';'

// CSVWriter writes the fixed-format report files.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteFile writes a header row plus records to path, replacing any previous
// file. A locked or unwritable destination surfaces as an error for this one
// file; callers continue with their remaining outputs.
func (w *CSVWriter) WriteFile(path string, headers []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open %s (is the file open in another program?): %w", path, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	cw.Comma = Separator

	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("write header to %s: %w", path, err)
	}
	for i, record := range records {
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record %d to %s: %w", i, path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	w.logger.Info("CSV file written",
		slog.String("path", path),
		slog.Int("rows", len(records)))
	return nil
}
