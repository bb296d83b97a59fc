// Package validation checks input and output folders before a run touches them.
package validation

import (
	"fmt"
	"log/slog"
	"os"

	apperrors "snapcli/internal/errors"
)

// FileValidator checks source and destination folders before any work is done
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputDirectory fails with SOURCE_NOT_FOUND when dir is missing or
// is not a directory.
func (v *FileValidator) ValidateInputDirectory(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Warn("Input directory does not exist",
			slog.String("directory", dir))
		return apperrors.NewSourceNotFoundError(fmt.Sprintf("input directory %s does not exist", dir)).
			WithContext("path", dir)
	}
	if err != nil {
		v.logger.Error("Failed to stat input directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewAppError(apperrors.ErrTypeSourceNotFound,
			fmt.Sprintf("failed to stat directory %s", dir), err).
			WithContext("path", dir)
	}
	if !info.IsDir() {
		v.logger.Warn("Input path is not a directory",
			slog.String("path", dir))
		return apperrors.NewSourceNotFoundError(fmt.Sprintf("%s is not a directory", dir)).
			WithContext("path", dir)
	}
	return nil
}

// ValidateOutputDirectory creates dir when needed and checks that it is
// writable. Failures are WRITE errors.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewWriteError(fmt.Sprintf("failed to create output directory %s", dir), err).
			WithContext("path", dir)
	}

	tmp, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewWriteError(fmt.Sprintf("output directory %s is not writable", dir), err).
			WithContext("path", dir)
	}
	name := tmp.Name()
	tmp.Close()
	os.Remove(name)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}
