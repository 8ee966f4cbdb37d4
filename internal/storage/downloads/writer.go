package downloads

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ciphernotes/shell/internal/platform"
	"github.com/ciphernotes/shell/internal/storage"
	"go.uber.org/zap"
)

// Writer writes exports straight into the public downloads directory and
// then asks the OS to index them.
type Writer struct {
	dir     string
	scanner platform.Scanner
	logger  *zap.Logger
}

// NewWriter creates a writer for <downloadsDir>/<subdir>. scanner may be nil.
func NewWriter(downloadsDir, subdir string, scanner platform.Scanner, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		dir:     filepath.Join(downloadsDir, subdir),
		scanner: scanner,
		logger:  logger,
	}
}

// Dir is the directory files are written to.
func (w *Writer) Dir() string {
	return w.dir
}

// Write implements storage.Writer. An existing file with the same name is
// replaced.
func (w *Writer) Write(ctx context.Context, obj storage.Object) (string, error) {
	if err := storage.ValidateName(obj.Name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("unable to create download directory: %w", err)
	}

	target := filepath.Join(w.dir, obj.Name)
	if err := os.WriteFile(target, obj.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", obj.Name, err)
	}

	if w.scanner != nil {
		if err := w.scanner.Scan(target, obj.MimeType); err != nil {
			w.logger.Debug("media scan request failed", zap.String("path", target), zap.Error(err))
		}
	}

	w.logger.Info("download written", zap.String("path", target), zap.Int("size", len(obj.Data)))
	return target, nil
}
