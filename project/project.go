// Package project defines the project model, its status lifecycle, and
// persistence interface.
package project

import (
	"errors"
	"math"
	"time"
)

// Project is a unit of collaborative work led by one person.
//
// CollaboratorIDs never contains LeaderID; the membership engine in the
// service layer is the only writer of either side of that relation.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	LeaderID        string   `json:"leader_id"`
	CollaboratorIDs []string `json:"collaborator_ids,omitempty"`

	Status Status `json:"status"`

	// Progress is derived from task completion; it is never written
	// directly by callers.
	Progress int  `json:"progress"`
	Archived bool `json:"archived"`

	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// HasCollaborator reports whether personID is in the collaborator set.
func (p *Project) HasCollaborator(personID string) bool {
	for _, id := range p.CollaboratorIDs {
		if id == personID {
			return true
		}
	}
	return false
}

// AddCollaboratorID adds personID to the collaborator set and reports
// whether the set changed.
func (p *Project) AddCollaboratorID(personID string) bool {
	if p.HasCollaborator(personID) {
		return false
	}
	p.CollaboratorIDs = append(p.CollaboratorIDs, personID)
	return true
}

// RemoveCollaboratorID drops personID from the collaborator set and reports
// whether the set changed.
func (p *Project) RemoveCollaboratorID(personID string) bool {
	out := p.CollaboratorIDs[:0]
	changed := false
	for _, id := range p.CollaboratorIDs {
		if id == personID {
			changed = true
			continue
		}
		out = append(out, id)
	}
	p.CollaboratorIDs = out
	return changed
}

// ComputeProgress returns the completion percentage for completed out of
// total tasks, rounded to the nearest integer. Zero total yields zero.
func ComputeProgress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// ErrNotFound is returned by stores when no project has the requested id.
var ErrNotFound = errors.New("project not found")

// ErrVersionConflict is returned by stores when an update races a newer write.
var ErrVersionConflict = errors.New("project version conflict")

// Store persists and retrieves projects.
type Store interface {
	// Create persists a new project and returns its assigned ID.
	Create(p *Project) (string, error)

	// Get retrieves a project by ID.
	Get(id string) (*Project, error)

	// Update saves changes to an existing project. It fails with
	// ErrVersionConflict if the stored version has advanced since load.
	Update(p *Project) error

	// List returns projects matching the given filter.
	List(filter Filter) ([]*Project, error)

	// Delete removes a project by ID.
	Delete(id string) error
}

// Filter controls which projects are returned by List.
type Filter struct {
	Status   *Status `json:"status,omitempty"`
	Archived *bool   `json:"archived,omitempty"`
	LeaderID string  `json:"leader_id,omitempty"`
	Limit    int     `json:"limit,omitempty"`
	Offset   int     `json:"offset,omitempty"`
}
