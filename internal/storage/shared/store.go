package shared

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ciphernotes/shell/internal/storage"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DownloadsDirectory is the top-level collection every entry lives under.
const DownloadsDirectory = "Download"

// ErrNotFound is returned for unknown catalog ids.
var ErrNotFound = errors.New("download not found")

// maxNameAttempts bounds display-name de-duplication.
const maxNameAttempts = 1000

// Entry is a catalog row.
type Entry struct {
	ID           int64
	DisplayName  string
	MimeType     string
	RelativePath string
	Size         int64
	Pending      bool
	CreatedAt    time.Time
}

// URI is the content reference handed back to callers.
func (e Entry) URI() string {
	return fmt.Sprintf("content://media/external/downloads/%d", e.ID)
}

// Store is managed shared storage: a sqlite catalog plus a file tree. Writes
// insert a pending row, write the bytes, then mark the row complete, so a
// crash mid-write never exposes a partial file as finished.
type Store struct {
	db           *sql.DB
	root         string
	relativePath string
	logger       *zap.Logger
}

// Open opens (or creates) the catalog under root. Exports land in
// Download/<subdir>.
func Open(root, subdir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}

	dbPath := filepath.Join(root, "catalog.db")
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	rel := DownloadsDirectory
	if subdir = strings.Trim(subdir, "/"); subdir != "" {
		rel = path.Join(DownloadsDirectory, subdir)
	}

	return &Store{
		db:           db,
		root:         root,
		relativePath: rel,
		logger:       logger,
	}, nil
}

// Close closes the catalog.
func (s *Store) Close() error {
	return s.db.Close()
}

// RelativePath is the collection path entries are written under.
func (s *Store) RelativePath() string {
	return s.relativePath
}

// Write implements storage.Writer.
func (s *Store) Write(ctx context.Context, obj storage.Object) (string, error) {
	if err := storage.ValidateName(obj.Name); err != nil {
		return "", err
	}

	entry, err := s.insertPending(ctx, obj)
	if err != nil {
		return "", err
	}

	if err := s.writeFile(entry, obj.Data); err != nil {
		s.discard(entry)
		return "", err
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE downloads SET is_pending = 0, size = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		len(obj.Data), entry.ID,
	); err != nil {
		s.discard(entry)
		return "", fmt.Errorf("failed to finalise download entry: %w", err)
	}

	s.logger.Info("download stored",
		zap.Int64("id", entry.ID),
		zap.String("name", entry.DisplayName),
		zap.String("relative_path", entry.RelativePath),
		zap.Int("size", len(obj.Data)),
	)
	return entry.URI(), nil
}

// insertPending reserves a unique display name in the collection, appending
// " (n)" before the extension on collision.
func (s *Store) insertPending(ctx context.Context, obj storage.Object) (Entry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("unable to create download entry: %w", err)
	}
	defer tx.Rollback()

	name := displayName(obj.Name, obj.MimeType)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for n := 1; ; n++ {
		var taken int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM downloads WHERE relative_path = ? AND display_name = ?`,
			s.relativePath, name,
		).Scan(&taken)
		if err != nil {
			return Entry{}, fmt.Errorf("unable to create download entry: %w", err)
		}
		if taken == 0 {
			break
		}
		if n >= maxNameAttempts {
			return Entry{}, fmt.Errorf("unable to create download entry: too many copies of %q", obj.Name)
		}
		name = fmt.Sprintf("%s (%d)%s", base, n, ext)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO downloads (display_name, mime_type, relative_path, is_pending) VALUES (?, ?, ?, 1)`,
		name, obj.MimeType, s.relativePath,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("unable to create download entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Entry{}, fmt.Errorf("unable to create download entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Entry{}, fmt.Errorf("unable to create download entry: %w", err)
	}

	return Entry{
		ID:           id,
		DisplayName:  name,
		MimeType:     obj.MimeType,
		RelativePath: s.relativePath,
		Pending:      true,
	}, nil
}

// displayName gives an extensionless name the extension of its declared
// type, the way the shared collection names inserted entries.
func displayName(name, mimeType string) string {
	if strings.Contains(name, ".") && !strings.HasSuffix(name, ".") {
		return name
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		return name
	}
	if m := mimetype.Lookup(mimeType); m != nil && m.Extension() != "" {
		return strings.TrimSuffix(name, ".") + m.Extension()
	}
	return name
}

func (s *Store) filePath(e Entry) string {
	return filepath.Join(s.root, filepath.FromSlash(e.RelativePath), e.DisplayName)
}

func (s *Store) writeFile(e Entry, data []byte) error {
	dir := filepath.Join(s.root, filepath.FromSlash(e.RelativePath))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("unable to open output stream: %w", err)
	}
	f, err := os.OpenFile(s.filePath(e), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("unable to open output stream: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", e.DisplayName, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", e.DisplayName, err)
	}
	return nil
}

// discard removes a half-written entry.
func (s *Store) discard(e Entry) {
	if _, err := s.db.Exec(`DELETE FROM downloads WHERE id = ?`, e.ID); err != nil {
		s.logger.Warn("failed to remove pending download entry", zap.Int64("id", e.ID), zap.Error(err))
	}
	if err := os.Remove(s.filePath(e)); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to remove partial download", zap.Int64("id", e.ID), zap.Error(err))
	}
}

// Get returns a catalog entry.
func (s *Store) Get(ctx context.Context, id int64) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, display_name, mime_type, relative_path, size, is_pending, created_at FROM downloads WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

// List returns completed entries, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, display_name, mime_type, relative_path, size, is_pending, created_at
		 FROM downloads WHERE is_pending = 0 ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list downloads: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Open returns the file behind a completed entry.
func (s *Store) Open(ctx context.Context, id int64) (Entry, *os.File, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return Entry{}, nil, err
	}
	if e.Pending {
		return Entry{}, nil, ErrNotFound
	}
	f, err := os.Open(s.filePath(e))
	if err != nil {
		return Entry{}, nil, fmt.Errorf("failed to open download %d: %w", id, err)
	}
	return e, f, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e       Entry
		pending int
	)
	if err := row.Scan(&e.ID, &e.DisplayName, &e.MimeType, &e.RelativePath, &e.Size, &pending, &e.CreatedAt); err != nil {
		return Entry{}, err
	}
	e.Pending = pending != 0
	return e, nil
}
