// Package store provides SQLite-backed persistence for persons, projects,
// and tasks. The three entity stores share one database handle.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS persons (
	id                       TEXT PRIMARY KEY,
	username                 TEXT NOT NULL UNIQUE,
	full_name                TEXT NOT NULL,
	role                     TEXT NOT NULL,
	active                   INTEGER NOT NULL DEFAULT 1,
	lead_project_ids         TEXT NOT NULL DEFAULT '[]',
	collaborator_project_ids TEXT NOT NULL DEFAULT '[]',
	password_hash            TEXT NOT NULL DEFAULT '',
	created_at               DATETIME NOT NULL,
	updated_at               DATETIME NOT NULL,
	version                  INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS projects (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	description      TEXT NOT NULL,
	leader_id        TEXT NOT NULL,
	collaborator_ids TEXT NOT NULL DEFAULT '[]',
	status           TEXT NOT NULL,
	progress         INTEGER NOT NULL DEFAULT 0,
	archived         INTEGER NOT NULL DEFAULT 0,
	start_date       DATETIME,
	end_date         DATETIME,
	created_at       DATETIME NOT NULL,
	updated_at       DATETIME NOT NULL,
	version          INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS tasks (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL,
	project_id   TEXT NOT NULL,
	assigned_to  TEXT NOT NULL DEFAULT '',
	created_by   TEXT NOT NULL,
	status       TEXT NOT NULL,
	priority     INTEGER NOT NULL DEFAULT 1,
	due_date     DATETIME,
	comments     TEXT NOT NULL DEFAULT '[]',
	tags         TEXT NOT NULL DEFAULT '[]',
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL,
	completed_at DATETIME,
	version      INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_tasks_project  ON tasks(project_id);
CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks(assigned_to);
`

// Store owns the SQLite database and hands out the per-entity stores.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at dbPath and ensures the schema
// exists. The caller is responsible for calling Close.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// Persons returns the person store view.
func (s *Store) Persons() *PersonStore { return &PersonStore{db: s.db} }

// Projects returns the project store view.
func (s *Store) Projects() *ProjectStore { return &ProjectStore{db: s.db} }

// Tasks returns the task store view.
func (s *Store) Tasks() *TaskStore { return &TaskStore{db: s.db} }

// newID generates a fresh entity id.
func newID() string { return uuid.NewString() }

// scanner abstracts sql.Row and sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
