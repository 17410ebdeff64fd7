// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. Perfect for:
// - Single-server deployments (which is most apps, honestly)
// - Development and testing (use ":memory:" for an in-memory DB)
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — no C compiler needed, works everywhere Go works.
//
// This backend is the relational deployment variant of the entity store. The
// schema mirrors the entities one-to-one: users, snippets, collections, plus
// two join/relation tables — likes (unique per user+snippet) and
// collection_snippets (a snippet may sit in many collections).
package sqlite

import (
	"database/sql"
	"fmt"

	// BLANK IMPORT:
	// The underscore import `_ "modernc.org/sqlite"` is a "side-effect only" import.
	// The sqlite package's init() function registers itself with database/sql as
	// a driver named "sqlite". After this import, sql.Open("sqlite", ...) knows
	// how to talk to SQLite.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool. The repository interfaces share method
// names (Create, GetByID, ...), and one receiver cannot implement two Creates
// with different signatures, so DB exposes one typed view per entity instead:
// Users(), Snippets(), Likes(), Collections(). All views share the pool.
type DB struct {
	conn *sql.DB
}

// Users returns the UserRepository view.
func (db *DB) Users() *UserStore { return &UserStore{conn: db.conn} }

// Snippets returns the SnippetRepository view.
func (db *DB) Snippets() *SnippetStore { return &SnippetStore{conn: db.conn} }

// Likes returns the LikeRepository view.
func (db *DB) Likes() *LikeStore { return &LikeStore{conn: db.conn} }

// Collections returns the CollectionRepository view.
func (db *DB) Collections() *CollectionStore { return &CollectionStore{conn: db.conn} }

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/codevault.db" → file-based database (persistent)
//   - ":memory:"          → in-memory database (great for tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping verifies the connection actually works. Without this, a bad path
	// or permissions issue would only surface on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is happening.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite (backwards compatibility).
	// We want referential integrity for snippets → users and the join tables.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
// Wherever you call New(), immediately defer Close().
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS is idempotent, so
// this is safe to run on every start. For a project this size that beats
// carrying a migration tool.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			bio           TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// tags is a JSON-encoded array. SQLite has no array type, the tag set is
	// small, and we never filter on tags inside SQL (the service does that),
	// so a serialized column is the honest choice.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS snippets (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users(id),
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			code        TEXT NOT NULL DEFAULT '',
			language    TEXT NOT NULL DEFAULT '',
			tags        TEXT NOT NULL DEFAULT '[]',
			is_public   INTEGER NOT NULL DEFAULT 0,
			forked_from TEXT NOT NULL DEFAULT '',
			fork_count  INTEGER NOT NULL DEFAULT 0,
			views       INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_snippets_user_id ON snippets(user_id);
		CREATE INDEX IF NOT EXISTS idx_snippets_created_at ON snippets(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating snippets table: %w", err)
	}

	// The UNIQUE(user_id, snippet_id) pair IS the "at most one like per
	// user per snippet" invariant — the database enforces it for us.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS likes (
			user_id    TEXT NOT NULL REFERENCES users(id),
			snippet_id TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, snippet_id)
		);
		CREATE INDEX IF NOT EXISTS idx_likes_snippet_id ON likes(snippet_id);
	`)
	if err != nil {
		return fmt.Errorf("creating likes table: %w", err)
	}

	// collection_snippets is the membership join table. No foreign key on
	// snippet_id: deleting a snippet may leave a dangling reference, which
	// readers must treat as optional. That matches the no-cascade contract.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS collections (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users(id),
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			is_public   INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_collections_user_id ON collections(user_id);

		CREATE TABLE IF NOT EXISTS collection_snippets (
			collection_id TEXT NOT NULL REFERENCES collections(id),
			snippet_id    TEXT NOT NULL,
			UNIQUE(collection_id, snippet_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating collections tables: %w", err)
	}

	return nil
}
