package validation

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// zipMagic is the local-file-header signature every zip archive starts with.
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// FileValidator checks run inputs before any processing begins, so a bad
// path never produces partial side effects.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a file validator.
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

// ValidateArchivePath verifies the archive exists, carries a .zip extension
// and starts with the zip signature.
func (v *FileValidator) ValidateArchivePath(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("archive %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat archive %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a zip archive", path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return fmt.Errorf("%s is not a .zip file", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, len(zipMagic))
	if _, err := f.Read(header); err != nil || !bytes.Equal(header, zipMagic) {
		return fmt.Errorf("%s is not a valid zip archive", path)
	}

	v.logger.Debug("archive path validated", slog.String("path", path))
	return nil
}

// ValidateOutputDirectory ensures the output directory exists (creating it
// if needed) and is writable, probing with a throwaway file.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("output directory validated", slog.String("directory", dir))
	return nil
}
