package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Archive keeps a dated copy of every generated report under the
// configured output directory.
type Archive struct {
	baseDir string
	logger  *zap.Logger
	now     func() time.Time
}

// NewArchive creates the report archive.
func NewArchive(baseDir string, logger *zap.Logger) *Archive {
	return &Archive{baseDir: baseDir, logger: logger, now: time.Now}
}

// Save writes the report under baseDir with a timestamped name and
// returns the full path.
func (a *Archive) Save(name string, content []byte) (string, error) {
	if err := a.validateName(name); err != nil {
		return "", err
	}

	stamped := fmt.Sprintf("%s_%s%s",
		strings.TrimSuffix(name, filepath.Ext(name)),
		a.now().Format("20060102_150405"),
		filepath.Ext(name))
	fullPath := filepath.Join(a.baseDir, stamped)

	if err := os.MkdirAll(a.baseDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		a.logger.Error("Failed to archive report",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to archive report: %w", err)
	}

	a.logger.Info("Report archived", zap.String("path", fullPath))
	return fullPath, nil
}

// validateName rejects names that would escape the archive directory.
func (a *Archive) validateName(name string) error {
	if name == "" {
		return fmt.Errorf("report name is required")
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid report name %q", name)
	}
	return nil
}
