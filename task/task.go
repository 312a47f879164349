// Package task defines the task model, its status lifecycle, and
// persistence interface.
package task

import (
	"errors"
	"time"
)

// Priority determines task ordering in listings.
type Priority int

const (
	PriorityLow      Priority = 0
	PriorityNormal   Priority = 1
	PriorityHigh     Priority = 2
	PriorityCritical Priority = 3
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

// Comment is a single append-only note on a task. Comments are never edited
// or removed.
type Comment struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Task is a unit of work inside a project.
//
// ProjectID and CreatedBy are immutable after creation. AssignedTo, when
// set, must reference a collaborator or the leader of the owning project;
// the service layer enforces that.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`

	ProjectID  string `json:"project_id"`
	AssignedTo string `json:"assigned_to,omitempty"`
	CreatedBy  string `json:"created_by"`

	Status   Status   `json:"status"`
	Priority Priority `json:"priority"`

	DueDate  *time.Time `json:"due_date,omitempty"`
	Comments []Comment  `json:"comments,omitempty"`
	Tags     []string   `json:"tags,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Version     int64      `json:"version"`
}

// ErrNotFound is returned by stores when no task has the requested id.
var ErrNotFound = errors.New("task not found")

// ErrVersionConflict is returned by stores when an update races a newer write.
var ErrVersionConflict = errors.New("task version conflict")

// Store persists and retrieves tasks.
type Store interface {
	// Create persists a new task and returns its assigned ID.
	Create(t *Task) (string, error)

	// Get retrieves a task by ID.
	Get(id string) (*Task, error)

	// Update saves changes to an existing task. It fails with
	// ErrVersionConflict if the stored version has advanced since load.
	Update(t *Task) error

	// List returns tasks matching the given filter.
	List(filter Filter) ([]*Task, error)

	// Delete removes a task by ID.
	Delete(id string) error

	// DeleteByProject removes every task of the given project and returns
	// the number removed.
	DeleteByProject(projectID string) (int, error)
}

// Filter controls which tasks are returned by List.
type Filter struct {
	ProjectID  string  `json:"project_id,omitempty"`
	AssignedTo string  `json:"assigned_to,omitempty"`
	Status     *Status `json:"status,omitempty"`
	Limit      int     `json:"limit,omitempty"`
	Offset     int     `json:"offset,omitempty"`
}
