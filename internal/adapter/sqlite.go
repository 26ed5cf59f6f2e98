package adapter

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS requests (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	book_id INTEGER NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	quality_profile_id INTEGER NOT NULL,
	external_author_id INTEGER,
	external_book_id TEXT,
	requested_at DATETIME NOT NULL,
	processed_at DATETIME,
	completed_at DATETIME,
	last_polled_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status);
CREATE UNIQUE INDEX IF NOT EXISTS idx_requests_one_pending
	ON requests(user_id, book_id) WHERE status = 'pending';

CREATE TABLE IF NOT EXISTS catalog_books (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	isbn TEXT
);
`

// OpenDB opens the SQLite database and applies the schema. The partial
// unique index is what enforces "at most one pending request per
// (user, book)".
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			return nil, fmt.Errorf("migrate database: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}
