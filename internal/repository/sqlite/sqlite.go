// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code.
//
// STORES:
// DB owns the connection pool. Each table family gets a small store type
// (NoteDB, UserDB, TagDB, FileDB) so that every store can expose the natural
// method names (Create, GetByID, ...) required by its repository interface.
//
//	db, _ := sqlite.New("data/notes.db")
//	notes := db.Notes() // repository.NoteRepository
//	users := db.Users() // repository.UserRepository
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// querier is the subset of *sql.DB and *sql.Tx the stores use, so the same
// query code runs inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps a sql.DB connection pool and hands out the table stores.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/notes.db"  → file-based database (persistent)
//   - ":memory:"       → in-memory database (tests)
//
// ONE CONNECTION:
// SQLite serialises writers anyway, and every new connection to ":memory:"
// would open a different, empty database. Capping the pool at one connection
// keeps PRAGMAs and in-memory data consistent. The flip side: while a
// transaction or an open *sql.Rows holds the connection, no other query on
// db.conn can run, so code inside withTx must only use the tx.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight (file databases only;
	// SQLite silently keeps "memory" mode for ":memory:").
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. The cascades on note_tags and
	// note depend on them.
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
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Notes() *NoteDB { return &NoteDB{db: db} }
func (db *DB) Users() *UserDB { return &UserDB{db: db} }
func (db *DB) Tags() *TagDB   { return &TagDB{db: db} }
func (db *DB) Files() *FileDB { return &FileDB{db: db} }

// withTx runs fn inside a transaction. fn's error rolls everything back;
// a nil return commits.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("sqlite: rolling back: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
//
// "user" is quoted because USER is a keyword in most SQL dialects.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS file (
			id  INTEGER PRIMARY KEY AUTOINCREMENT,
			url TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS "user" (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_staff      INTEGER NOT NULL DEFAULT 0,
			role          TEXT NOT NULL DEFAULT 'user',
			photo_id      INTEGER REFERENCES file(id) ON DELETE SET NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating user tables: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS tag (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS note (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id INTEGER NOT NULL REFERENCES "user"(id) ON DELETE CASCADE,
			text     TEXT NOT NULL,
			private  INTEGER NOT NULL DEFAULT 1,
			archived INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_note_owner_id ON note(owner_id);

		CREATE TABLE IF NOT EXISTS note_tags (
			note_id INTEGER NOT NULL REFERENCES note(id) ON DELETE CASCADE,
			tag_id  INTEGER NOT NULL REFERENCES tag(id) ON DELETE CASCADE,
			PRIMARY KEY (note_id, tag_id)
		);
		CREATE INDEX IF NOT EXISTS idx_note_tags_tag_id ON note_tags(tag_id);
	`)
	if err != nil {
		return fmt.Errorf("creating note tables: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is SQLite's UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// checkAffected turns "0 rows affected" into the NotFound error built by notFound.
func checkAffected(result sql.Result, notFound func() error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return notFound()
	}
	return nil
}
