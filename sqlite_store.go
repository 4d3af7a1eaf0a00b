package chainlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

type sqliteStore struct{ db *sql.DB }

// OpenSQLiteStore opens/creates a SQLite DB and ensures schema + PRAGMAs.
// Line and head updates share one transaction, so unlike the file store a
// crash cannot leave the head pointer behind the chain.
func OpenSQLiteStore(dsn string) (Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA wal_autocheckpoint=1000;",
	} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", p, err)
		}
	}
	schema := `
CREATE TABLE IF NOT EXISTS chain (
  line_no INTEGER PRIMARY KEY AUTOINCREMENT,
  raw     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS head (
  id    INTEGER PRIMARY KEY CHECK(id=1),
  hash  TEXT NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

// Append inserts one line and overwrites the head pointer in a single
// serializable transaction.
func (s *sqliteStore) Append(line, head string) error {
	if containsNewline(line) {
		return errors.New("line contains newline")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO chain(raw) VALUES(?)`, line); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO head(id, hash) VALUES(1, ?)
		 ON CONFLICT(id) DO UPDATE SET hash=excluded.hash`, head); err != nil {
		return err
	}
	return tx.Commit()
}

// Iter streams lines in insertion order.
func (s *sqliteStore) Iter() (<-chan string, func() error, error) {
	ctx, cancel := context.WithCancel(context.Background())
	rows, err := s.db.QueryContext(ctx, `SELECT raw FROM chain ORDER BY line_no ASC`)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	out := make(chan string, 64)
	iterErr := make(chan error, 1)
	go func() {
		defer close(out)
		defer rows.Close()
		defer cancel()
		for rows.Next() {
			var raw string
			if err := rows.Scan(&raw); err != nil {
				iterErr <- err
				return
			}
			select {
			case <-ctx.Done():
				iterErr <- nil
				return
			case out <- raw:
			}
		}
		// rows.Next returns false on both exhaustion and failure; a
		// cancel-triggered stop is the consumer's own doing.
		if err := rows.Err(); err != nil && !errors.Is(err, context.Canceled) {
			iterErr <- err
			return
		}
		iterErr <- nil
	}()
	return out, func() error { cancel(); return <-iterErr }, nil
}

// Head returns the stored head pointer, if any.
func (s *sqliteStore) Head() (string, bool, error) {
	var hash string
	err := s.db.QueryRow(`SELECT hash FROM head WHERE id=1`).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return hash, hash != "", nil
}

// Close closes the database.
func (s *sqliteStore) Close() error { return s.db.Close() }
