// Package storage defines how exported files reach the device's shared
// storage. Two strategies exist: shared (a managed catalog that owns
// insertion) and downloads (direct writes into the public directory).
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidName is returned for display names that are empty or would
// escape the target directory.
var ErrInvalidName = errors.New("invalid file name")

// Object is one file to persist.
type Object struct {
	Name     string
	MimeType string
	Data     []byte
}

// Writer persists objects and returns where they ended up.
type Writer interface {
	Write(ctx context.Context, obj Object) (string, error)
}

// ValidateName rejects names that are not a single path element.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return ErrInvalidName
	}
	return nil
}
