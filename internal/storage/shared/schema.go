package shared

// Schema creates the downloads catalog. A row with is_pending=1 has been
// inserted but its bytes are not complete yet; readers must skip it.
const Schema = `
CREATE TABLE IF NOT EXISTS downloads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	display_name TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	relative_path TEXT NOT NULL,
	size INTEGER NOT NULL DEFAULT 0,
	is_pending INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(relative_path, display_name)
);
CREATE INDEX IF NOT EXISTS idx_downloads_pending ON downloads(is_pending);
`
