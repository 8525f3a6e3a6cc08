package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	scope      TEXT NOT NULL,
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       TEXT NOT NULL,
	PRIMARY KEY (scope, collection, id)
);`

// SQLiteBackend stores documents as JSON text in a single SQLite table.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite database at path with WAL enabled.
// Transactions take the write lock up front so Update cannot interleave.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (s *SQLiteBackend) Put(ctx context.Context, scope, collection, id string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (scope, collection, id, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT (scope, collection, id) DO UPDATE SET data = excluded.data`,
		scope, collection, id, string(data))
	if err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

func (s *SQLiteBackend) Get(ctx context.Context, scope, collection, id string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE scope = ? AND collection = ? AND id = ?`,
		scope, collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return []byte(data), nil
}

func (s *SQLiteBackend) Delete(ctx context.Context, scope, collection, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE scope = ? AND collection = ? AND id = ?`,
		scope, collection, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteBackend) Scan(ctx context.Context, scope, collection string, fn func(id string, data []byte) error) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM documents WHERE scope = ? AND collection = ? ORDER BY id`,
		scope, collection)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", collection, err)
	}

	var ids []string
	var values [][]byte
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scanning %s: %w", collection, err)
		}
		ids = append(ids, id)
		values = append(values, []byte(data))
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("scanning %s: %w", collection, err)
	}
	_ = rows.Close()

	for i, id := range ids {
		if err := fn(id, values[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteBackend) Update(ctx context.Context, scope, collection, id string, fn func(current []byte) ([]byte, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE scope = ? AND collection = ? AND id = ?`,
		scope, collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}

	next, err := fn([]byte(data))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET data = ? WHERE scope = ? AND collection = ? AND id = ?`,
		string(next), scope, collection, id); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
