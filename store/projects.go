package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crewdeck/crewdeck/project"
)

// ProjectStore implements project.Store on SQLite.
type ProjectStore struct {
	db *sql.DB
}

var _ project.Store = (*ProjectStore)(nil)

// Create persists a new project and sets its ID, CreatedAt, and UpdatedAt.
func (s *ProjectStore) Create(p *project.Project) (string, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Version = 1

	collab, _ := json.Marshal(p.CollaboratorIDs)

	_, err := s.db.Exec(`
		INSERT INTO projects
			(id, name, description, leader_id, collaborator_ids, status,
			 progress, archived, start_date, end_date, created_at, updated_at, version)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Name, p.Description, p.LeaderID, string(collab), string(p.Status),
		p.Progress, p.Archived, nullTime(p.StartDate), nullTime(p.EndDate),
		p.CreatedAt, p.UpdatedAt, p.Version,
	)
	if err != nil {
		return "", fmt.Errorf("insert project: %w", err)
	}
	return p.ID, nil
}

// Get retrieves a project by ID.
func (s *ProjectStore) Get(id string) (*project.Project, error) {
	row := s.db.QueryRow(`SELECT * FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", id, project.ErrNotFound)
	}
	return p, err
}

// Update saves changes to an existing project. The write is guarded by the
// version loaded with the entity; a stale version yields ErrVersionConflict.
func (s *ProjectStore) Update(p *project.Project) error {
	p.UpdatedAt = time.Now().UTC()
	collab, _ := json.Marshal(p.CollaboratorIDs)

	res, err := s.db.Exec(`
		UPDATE projects SET
			name=?, description=?, leader_id=?, collaborator_ids=?, status=?,
			progress=?, archived=?, start_date=?, end_date=?,
			updated_at=?, version=version+1
		WHERE id=? AND version=?`,
		p.Name, p.Description, p.LeaderID, string(collab), string(p.Status),
		p.Progress, p.Archived, nullTime(p.StartDate), nullTime(p.EndDate),
		p.UpdatedAt,
		p.ID, p.Version,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var n int
		if err := s.db.QueryRow(`SELECT COUNT(1) FROM projects WHERE id=?`, p.ID).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("project %s: %w", p.ID, project.ErrNotFound)
		}
		return fmt.Errorf("project %s: %w", p.ID, project.ErrVersionConflict)
	}
	p.Version++
	return nil
}

// List returns projects matching the filter, newest first.
func (s *ProjectStore) List(filter project.Filter) ([]*project.Project, error) {
	q := strings.Builder{}
	q.WriteString("SELECT * FROM projects WHERE 1=1")
	args := []any{}

	if filter.Status != nil {
		q.WriteString(" AND status=?")
		args = append(args, string(*filter.Status))
	}
	if filter.Archived != nil {
		q.WriteString(" AND archived=?")
		args = append(args, *filter.Archived)
	}
	if filter.LeaderID != "" {
		q.WriteString(" AND leader_id=?")
		args = append(args, filter.LeaderID)
	}
	q.WriteString(" ORDER BY created_at DESC")
	if filter.Limit > 0 {
		q.WriteString(fmt.Sprintf(" LIMIT %d", filter.Limit))
		if filter.Offset > 0 {
			q.WriteString(fmt.Sprintf(" OFFSET %d", filter.Offset))
		}
	}

	rows, err := s.db.Query(q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Delete removes a project by ID.
func (s *ProjectStore) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM projects WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("project %s: %w", id, project.ErrNotFound)
	}
	return nil
}

func scanProject(s scanner) (*project.Project, error) {
	var p project.Project
	var status, collabJSON string
	var startDate, endDate sql.NullTime

	err := s.Scan(
		&p.ID, &p.Name, &p.Description, &p.LeaderID, &collabJSON, &status,
		&p.Progress, &p.Archived, &startDate, &endDate,
		&p.CreatedAt, &p.UpdatedAt, &p.Version,
	)
	if err != nil {
		return nil, err
	}

	p.Status = project.Status(status)
	_ = json.Unmarshal([]byte(collabJSON), &p.CollaboratorIDs)
	p.StartDate = timePtr(startDate)
	p.EndDate = timePtr(endDate)
	return &p, nil
}
