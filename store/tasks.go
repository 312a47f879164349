package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crewdeck/crewdeck/task"
)

// TaskStore implements task.Store on SQLite.
type TaskStore struct {
	db *sql.DB
}

var _ task.Store = (*TaskStore)(nil)

// Create persists a new task and sets its ID, CreatedAt, and UpdatedAt.
func (s *TaskStore) Create(t *task.Task) (string, error) {
	if t.ID == "" {
		t.ID = newID()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Version = 1

	comments, _ := json.Marshal(t.Comments)
	tags, _ := json.Marshal(t.Tags)

	_, err := s.db.Exec(`
		INSERT INTO tasks
			(id, title, description, project_id, assigned_to, created_by, status,
			 priority, due_date, comments, tags, created_at, updated_at, completed_at, version)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Title, t.Description, t.ProjectID, t.AssignedTo, t.CreatedBy,
		string(t.Status), int(t.Priority), nullTime(t.DueDate),
		string(comments), string(tags),
		t.CreatedAt, t.UpdatedAt, nullTime(t.CompletedAt), t.Version,
	)
	if err != nil {
		return "", fmt.Errorf("insert task: %w", err)
	}
	return t.ID, nil
}

// Get retrieves a task by ID.
func (s *TaskStore) Get(id string) (*task.Task, error) {
	row := s.db.QueryRow(`SELECT * FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, task.ErrNotFound)
	}
	return t, err
}

// Update saves changes to an existing task. The write is guarded by the
// version loaded with the entity; a stale version yields ErrVersionConflict.
func (s *TaskStore) Update(t *task.Task) error {
	t.UpdatedAt = time.Now().UTC()
	comments, _ := json.Marshal(t.Comments)
	tags, _ := json.Marshal(t.Tags)

	res, err := s.db.Exec(`
		UPDATE tasks SET
			title=?, description=?, assigned_to=?, status=?, priority=?,
			due_date=?, comments=?, tags=?, updated_at=?, completed_at=?,
			version=version+1
		WHERE id=? AND version=?`,
		t.Title, t.Description, t.AssignedTo, string(t.Status), int(t.Priority),
		nullTime(t.DueDate), string(comments), string(tags),
		t.UpdatedAt, nullTime(t.CompletedAt),
		t.ID, t.Version,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var n int
		if err := s.db.QueryRow(`SELECT COUNT(1) FROM tasks WHERE id=?`, t.ID).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("task %s: %w", t.ID, task.ErrNotFound)
		}
		return fmt.Errorf("task %s: %w", t.ID, task.ErrVersionConflict)
	}
	t.Version++
	return nil
}

// List returns tasks matching the filter, highest priority first.
func (s *TaskStore) List(filter task.Filter) ([]*task.Task, error) {
	q := strings.Builder{}
	q.WriteString("SELECT * FROM tasks WHERE 1=1")
	args := []any{}

	if filter.ProjectID != "" {
		q.WriteString(" AND project_id=?")
		args = append(args, filter.ProjectID)
	}
	if filter.AssignedTo != "" {
		q.WriteString(" AND assigned_to=?")
		args = append(args, filter.AssignedTo)
	}
	if filter.Status != nil {
		q.WriteString(" AND status=?")
		args = append(args, string(*filter.Status))
	}
	q.WriteString(" ORDER BY priority DESC, created_at ASC")
	if filter.Limit > 0 {
		q.WriteString(fmt.Sprintf(" LIMIT %d", filter.Limit))
		if filter.Offset > 0 {
			q.WriteString(fmt.Sprintf(" OFFSET %d", filter.Offset))
		}
	}

	rows, err := s.db.Query(q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Delete removes a task by ID.
func (s *TaskStore) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM tasks WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, task.ErrNotFound)
	}
	return nil
}

// DeleteByProject removes every task of the given project.
func (s *TaskStore) DeleteByProject(projectID string) (int, error) {
	res, err := s.db.Exec("DELETE FROM tasks WHERE project_id=?", projectID)
	if err != nil {
		return 0, fmt.Errorf("delete tasks of project %s: %w", projectID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}

func scanTask(s scanner) (*task.Task, error) {
	var t task.Task
	var status, commentsJSON, tagsJSON string
	var priority int
	var dueDate, completedAt sql.NullTime

	err := s.Scan(
		&t.ID, &t.Title, &t.Description, &t.ProjectID, &t.AssignedTo, &t.CreatedBy,
		&status, &priority, &dueDate,
		&commentsJSON, &tagsJSON,
		&t.CreatedAt, &t.UpdatedAt, &completedAt, &t.Version,
	)
	if err != nil {
		return nil, err
	}

	t.Status = task.Status(status)
	t.Priority = task.Priority(priority)
	_ = json.Unmarshal([]byte(commentsJSON), &t.Comments)
	_ = json.Unmarshal([]byte(tagsJSON), &t.Tags)
	t.DueDate = timePtr(dueDate)
	t.CompletedAt = timePtr(completedAt)
	return &t, nil
}
