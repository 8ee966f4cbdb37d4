package shared

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ciphernotes/shell/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	s, err := Open(root, "Ciphernotes", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, root
}

func TestWriteCompletesEntry(t *testing.T) {
	s, root := openTestStore(t)
	ctx := context.Background()

	uri, err := s.Write(ctx, storage.Object{Name: "hello.txt", MimeType: "text/plain", Data: []byte("Hello")})
	require.NoError(t, err)
	assert.Equal(t, "content://media/external/downloads/1", uri)

	e, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", e.DisplayName)
	assert.Equal(t, "text/plain", e.MimeType)
	assert.Equal(t, "Download/Ciphernotes", e.RelativePath)
	assert.Equal(t, int64(5), e.Size)
	assert.False(t, e.Pending)

	data, err := os.ReadFile(filepath.Join(root, "Download", "Ciphernotes", "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(data))

	opened, f, err := s.Open(ctx, 1)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, e, opened)
	b, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(b))
}

func TestWriteDeduplicatesNames(t *testing.T) {
	s, root := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Write(ctx, storage.Object{Name: "notes.json", MimeType: "application/json", Data: []byte{byte('0' + i)}})
		require.NoError(t, err)
	}

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "notes (2).json", entries[0].DisplayName)
	assert.Equal(t, "notes (1).json", entries[1].DisplayName)
	assert.Equal(t, "notes.json", entries[2].DisplayName)

	data, err := os.ReadFile(filepath.Join(root, "Download", "Ciphernotes", "notes (1).json"))
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}

func TestWriteDerivesMissingExtension(t *testing.T) {
	s, root := openTestStore(t)
	ctx := context.Background()

	objs := []storage.Object{
		{Name: "backup", MimeType: "application/json", Data: []byte("{}")},
		{Name: "backup", MimeType: "application/json", Data: []byte("[]")},
		{Name: "blob", MimeType: "application/octet-stream", Data: []byte("x")},
		{Name: "notes.txt", MimeType: "application/json", Data: []byte("y")},
	}
	for _, obj := range objs {
		_, err := s.Write(ctx, obj)
		require.NoError(t, err)
	}

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "notes.txt", entries[0].DisplayName)
	assert.Equal(t, "blob", entries[1].DisplayName)
	assert.Equal(t, "backup (1).json", entries[2].DisplayName)
	assert.Equal(t, "backup.json", entries[3].DisplayName)

	data, err := os.ReadFile(filepath.Join(root, "Download", "Ciphernotes", "backup.json"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestWriteRejectsInvalidNames(t *testing.T) {
	s, _ := openTestStore(t)

	_, err := s.Write(context.Background(), storage.Object{Name: "../escape.txt", Data: []byte("x")})
	assert.ErrorIs(t, err, storage.ErrInvalidName)

	entries, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteFailureLeavesNoEntry(t *testing.T) {
	s, root := openTestStore(t)
	ctx := context.Background()

	// A regular file where the collection directory should be
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Download"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Download", "Ciphernotes"), []byte("blocker"), 0o644))

	_, err := s.Write(ctx, storage.Object{Name: "hello.txt", MimeType: "text/plain", Data: []byte("Hello")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to open output stream")

	_, err = s.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = s.Open(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReopenKeepsCatalog(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	s, err := Open(root, "Ciphernotes", nil)
	require.NoError(t, err)
	_, err = s.Write(ctx, storage.Object{Name: "a.txt", MimeType: "text/plain", Data: []byte("a")})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(root, "Ciphernotes", nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Write(ctx, storage.Object{Name: "a.txt", MimeType: "text/plain", Data: []byte("b")})
	require.NoError(t, err)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a (1).txt", entries[0].DisplayName)
}

func TestGetUnknown(t *testing.T) {
	s, _ := openTestStore(t)
	_, err := s.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRelativePathWithoutSubdir(t *testing.T) {
	s, err := Open(t.TempDir(), "", nil)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "Download", s.RelativePath())
}
