package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crewdeck/crewdeck/person"
)

// PersonStore implements person.Store on SQLite.
type PersonStore struct {
	db *sql.DB
}

var _ person.Store = (*PersonStore)(nil)

// Create persists a new person and sets its ID, CreatedAt, and UpdatedAt.
func (s *PersonStore) Create(p *person.Person) (string, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Version = 1

	lead, _ := json.Marshal(p.LeadProjectIDs)
	collab, _ := json.Marshal(p.CollaboratorProjectIDs)

	_, err := s.db.Exec(`
		INSERT INTO persons
			(id, username, full_name, role, active, lead_project_ids,
			 collaborator_project_ids, password_hash, created_at, updated_at, version)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Username, p.FullName, string(p.Role), p.Active,
		string(lead), string(collab), p.PasswordHash,
		p.CreatedAt, p.UpdatedAt, p.Version,
	)
	if err != nil {
		return "", fmt.Errorf("insert person: %w", err)
	}
	return p.ID, nil
}

// Get retrieves a person by ID.
func (s *PersonStore) Get(id string) (*person.Person, error) {
	row := s.db.QueryRow(`SELECT * FROM persons WHERE id = ?`, id)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("person %s: %w", id, person.ErrNotFound)
	}
	return p, err
}

// GetByUsername retrieves a person by unique username.
func (s *PersonStore) GetByUsername(username string) (*person.Person, error) {
	row := s.db.QueryRow(`SELECT * FROM persons WHERE username = ?`, username)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("person %q: %w", username, person.ErrNotFound)
	}
	return p, err
}

// Update saves changes to an existing person. The write is guarded by the
// version loaded with the entity; a stale version yields ErrVersionConflict.
func (s *PersonStore) Update(p *person.Person) error {
	p.UpdatedAt = time.Now().UTC()
	lead, _ := json.Marshal(p.LeadProjectIDs)
	collab, _ := json.Marshal(p.CollaboratorProjectIDs)

	res, err := s.db.Exec(`
		UPDATE persons SET
			username=?, full_name=?, role=?, active=?,
			lead_project_ids=?, collaborator_project_ids=?, password_hash=?,
			updated_at=?, version=version+1
		WHERE id=? AND version=?`,
		p.Username, p.FullName, string(p.Role), p.Active,
		string(lead), string(collab), p.PasswordHash,
		p.UpdatedAt,
		p.ID, p.Version,
	)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var n int
		if err := s.db.QueryRow(`SELECT COUNT(1) FROM persons WHERE id=?`, p.ID).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("person %s: %w", p.ID, person.ErrNotFound)
		}
		return fmt.Errorf("person %s: %w", p.ID, person.ErrVersionConflict)
	}
	p.Version++
	return nil
}

// List returns persons matching the filter, ordered by full name.
func (s *PersonStore) List(filter person.Filter) ([]*person.Person, error) {
	q := strings.Builder{}
	q.WriteString("SELECT * FROM persons WHERE 1=1")
	args := []any{}

	if filter.Role != nil {
		q.WriteString(" AND role=?")
		args = append(args, string(*filter.Role))
	}
	if filter.Active != nil {
		q.WriteString(" AND active=?")
		args = append(args, *filter.Active)
	}
	q.WriteString(" ORDER BY full_name ASC")
	if filter.Limit > 0 {
		q.WriteString(fmt.Sprintf(" LIMIT %d", filter.Limit))
		if filter.Offset > 0 {
			q.WriteString(fmt.Sprintf(" OFFSET %d", filter.Offset))
		}
	}

	rows, err := s.db.Query(q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	var persons []*person.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, p)
	}
	return persons, rows.Err()
}

// Delete removes a person by ID.
func (s *PersonStore) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM persons WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("person %s: %w", id, person.ErrNotFound)
	}
	return nil
}

func scanPerson(s scanner) (*person.Person, error) {
	var p person.Person
	var role, leadJSON, collabJSON string

	err := s.Scan(
		&p.ID, &p.Username, &p.FullName, &role, &p.Active,
		&leadJSON, &collabJSON, &p.PasswordHash,
		&p.CreatedAt, &p.UpdatedAt, &p.Version,
	)
	if err != nil {
		return nil, err
	}

	p.Role = person.Role(role)
	_ = json.Unmarshal([]byte(leadJSON), &p.LeadProjectIDs)
	_ = json.Unmarshal([]byte(collabJSON), &p.CollaboratorProjectIDs)
	return &p, nil
}
