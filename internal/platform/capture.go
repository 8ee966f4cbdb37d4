package platform

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DirCaptureAllocator reserves capture files in a private cache directory.
type DirCaptureAllocator struct {
	Dir string
}

// Allocate creates an empty destination file and returns its file URI.
func (a DirCaptureAllocator) Allocate() (Ref, error) {
	if err := os.MkdirAll(a.Dir, 0o700); err != nil {
		return "", fmt.Errorf("create capture directory: %w", err)
	}

	path := filepath.Join(a.Dir, "ciphernotes_capture_"+uuid.NewString()+".jpg")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create capture file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("create capture file: %w", err)
	}

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return Ref(u.String()), nil
}
