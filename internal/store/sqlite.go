// Package store is tidy's SQLite persistence: accounts, per-user undo
// entries, and run history.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"tidy/internal/apperr"
	"tidy/internal/auth"
	"tidy/internal/history"
	"tidy/internal/store/migrations"
	"tidy/internal/undolog"
)

// SQLite implements auth.UserStore, undolog.Store, and history.Recorder.
type SQLite struct {
	db   *sql.DB
	path string
}

var (
	_ auth.UserStore   = (*SQLite)(nil)
	_ undolog.Store    = (*SQLite)(nil)
	_ history.Recorder = (*SQLite)(nil)
)

// OpenConnection opens a SQLite database with foreign keys enforced.
// path can be a file path or ":memory:".
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// PRAGMAs are per connection; one connection keeps them in force and
	// serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema.
func Open(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.path
}

// CheckMigrations verifies the schema is up to date.
func (s *SQLite) CheckMigrations() error {
	return migrations.Check(s.db)
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Users

func (s *SQLite) CreateUser(ctx context.Context, u auth.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (name, password_hash, created_at) VALUES (?, ?, ?)",
		u.Name, u.PasswordHash, u.CreatedAt.UTC())
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && (se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || se.ExtendedCode == sqlite3.ErrConstraintUnique) {
			return apperr.New(apperr.UserExists, "create user", u.Name, nil)
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (s *SQLite) GetUser(ctx context.Context, name string) (*auth.User, error) {
	var u auth.User
	err := s.db.QueryRowContext(ctx,
		"SELECT name, password_hash, created_at FROM users WHERE name = ?", name).
		Scan(&u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.Local()
	return &u, nil
}

// Undo entries

// Save replaces user's undo entry in one transaction.
func (s *SQLite) Save(ctx context.Context, entry undolog.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	// Cascades to undo_moves.
	if _, err := tx.ExecContext(ctx, "DELETE FROM undo_entries WHERE user_name = ?", entry.User); err != nil {
		return fmt.Errorf("clearing undo entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO undo_entries (user_name, run_id, created_at) VALUES (?, ?, ?)",
		entry.User, entry.RunID, entry.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("inserting undo entry: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO undo_moves (user_name, seq, destination, original_folder) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing undo move insert: %w", err)
	}
	defer stmt.Close()
	for i, m := range entry.Files {
		if _, err := stmt.ExecContext(ctx, entry.User, i, m.Destination, m.OriginalFolder); err != nil {
			return fmt.Errorf("inserting undo move: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, user string) (*undolog.Entry, error) {
	entry := undolog.Entry{User: user}
	err := s.db.QueryRowContext(ctx,
		"SELECT run_id, created_at FROM undo_entries WHERE user_name = ?", user).
		Scan(&entry.RunID, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NoUndoAvailable, "load undo entry", "", nil)
		}
		return nil, fmt.Errorf("finding undo entry: %w", err)
	}
	entry.CreatedAt = entry.CreatedAt.Local()

	rows, err := s.db.QueryContext(ctx,
		"SELECT destination, original_folder FROM undo_moves WHERE user_name = ? ORDER BY seq", user)
	if err != nil {
		return nil, fmt.Errorf("listing undo moves: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m undolog.MoveRecord
		if err := rows.Scan(&m.Destination, &m.OriginalFolder); err != nil {
			return nil, fmt.Errorf("scanning undo move: %w", err)
		}
		entry.Files = append(entry.Files, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing undo moves: %w", err)
	}
	return &entry, nil
}

func (s *SQLite) Delete(ctx context.Context, user string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM undo_entries WHERE user_name = ?", user); err != nil {
		return fmt.Errorf("deleting undo entry: %w", err)
	}
	return nil
}

// Run history

func (s *SQLite) RecordRun(ctx context.Context, r history.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, user_name, type, folder, backup_dir, started_at, finished_at, status, files, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.User, string(r.Type), r.Folder, r.BackupDir,
		r.StartedAt.UTC(), r.FinishedAt.UTC(), string(r.Status), r.Files, r.Error)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// ListRuns returns user's most recent runs, newest first. limit <= 0 means all.
func (s *SQLite) ListRuns(ctx context.Context, user string, limit int) ([]history.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_name, type, folder, backup_dir, started_at, finished_at, status, files, error
		 FROM runs WHERE user_name = ? ORDER BY started_at DESC, id DESC LIMIT ?`, user, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []history.Run
	for rows.Next() {
		var (
			r              history.Run
			typ, status    string
			started, ended time.Time
		)
		if err := rows.Scan(&r.ID, &r.User, &typ, &r.Folder, &r.BackupDir, &started, &ended, &status, &r.Files, &r.Error); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Type = history.RunType(typ)
		r.Status = history.RunStatus(status)
		r.StartedAt = started.Local()
		r.FinishedAt = ended.Local()
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}
