package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Sheet is one tab of the combined workbook: a header row plus data rows,
// shared with the CSV renderers so both outputs always agree.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// WorkbookWriter writes the optional combined .xlsx workbook, one sheet per
// generated dataset, for operators who review the run in a spreadsheet.
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer.
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger}
}

// WriteFile writes the workbook to path. At least one sheet is required.
func (w *WorkbookWriter) WriteFile(path string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("workbook %s: no sheets to write", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			// Reuse the default sheet rather than leaving an empty Sheet1.
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return fmt.Errorf("workbook %s: rename sheet: %w", path, err)
			}
		} else {
			if _, err := f.NewSheet(sheet.Name); err != nil {
				return fmt.Errorf("workbook %s: add sheet %s: %w", path, sheet.Name, err)
			}
		}
		if err := writeSheet(f, sheet); err != nil {
			return fmt.Errorf("workbook %s: sheet %s: %w", path, sheet.Name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s (is the file open in another program?): %w", path, err)
	}

	w.logger.Info("workbook written",
		slog.String("path", path),
		slog.Int("sheets", len(sheets)))
	return nil
}

func writeSheet(f *excelize.File, sheet Sheet) error {
	writeRow := func(rowIdx int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		return f.SetSheetRow(sheet.Name, cell, &row)
	}

	if err := writeRow(1, sheet.Headers); err != nil {
		return err
	}
	for i, row := range sheet.Rows {
		if err := writeRow(i+2, row); err != nil {
			return err
		}
	}
	return nil
}
