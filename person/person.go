// Package person defines the person model and persistence interface.
package person

import (
	"errors"
	"time"
)

// Role determines what a person may do across the workspace.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleLeader       Role = "leader"
	RoleCollaborator Role = "collaborator"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLeader, RoleCollaborator:
		return true
	}
	return false
}

// CanLead reports whether a person with this role may be a project leader.
func (r Role) CanLead() bool {
	return r == RoleAdmin || r == RoleLeader
}

// Person is a member of the workspace.
//
// LeadProjectIDs and CollaboratorProjectIDs mirror the leader/collaborator
// references held by projects. A project id lives in at most one of the two
// sets; the mutators below preserve that.
type Person struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
	Active   bool   `json:"active"`

	LeadProjectIDs         []string `json:"lead_project_ids,omitempty"`
	CollaboratorProjectIDs []string `json:"collaborator_project_ids,omitempty"`

	// PasswordHash is a bcrypt hash, set and checked only by the auth layer.
	PasswordHash string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// Leads reports whether the person is the leader of the given project.
func (p *Person) Leads(projectID string) bool {
	return contains(p.LeadProjectIDs, projectID)
}

// CollaboratesOn reports whether the person collaborates on the given project.
func (p *Person) CollaboratesOn(projectID string) bool {
	return contains(p.CollaboratorProjectIDs, projectID)
}

// AddLeadProject records projectID in the led set, dropping any collaborator
// entry for the same project.
func (p *Person) AddLeadProject(projectID string) {
	p.CollaboratorProjectIDs = remove(p.CollaboratorProjectIDs, projectID)
	if !contains(p.LeadProjectIDs, projectID) {
		p.LeadProjectIDs = append(p.LeadProjectIDs, projectID)
	}
}

// RemoveLeadProject drops projectID from the led set.
func (p *Person) RemoveLeadProject(projectID string) {
	p.LeadProjectIDs = remove(p.LeadProjectIDs, projectID)
}

// AddCollaboratorProject records projectID in the collaborator set. It is a
// no-op if the person already leads that project.
func (p *Person) AddCollaboratorProject(projectID string) {
	if contains(p.LeadProjectIDs, projectID) {
		return
	}
	if !contains(p.CollaboratorProjectIDs, projectID) {
		p.CollaboratorProjectIDs = append(p.CollaboratorProjectIDs, projectID)
	}
}

// RemoveCollaboratorProject drops projectID from the collaborator set.
func (p *Person) RemoveCollaboratorProject(projectID string) {
	p.CollaboratorProjectIDs = remove(p.CollaboratorProjectIDs, projectID)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// ErrNotFound is returned by stores when no person has the requested id.
var ErrNotFound = errors.New("person not found")

// ErrVersionConflict is returned by stores when an update races a newer write.
var ErrVersionConflict = errors.New("person version conflict")

// Store persists and retrieves persons.
type Store interface {
	// Create persists a new person and returns its assigned ID.
	Create(p *Person) (string, error)

	// Get retrieves a person by ID.
	Get(id string) (*Person, error)

	// GetByUsername retrieves a person by unique username.
	GetByUsername(username string) (*Person, error)

	// Update saves changes to an existing person. It fails with
	// ErrVersionConflict if the stored version has advanced since load.
	Update(p *Person) error

	// List returns persons matching the given filter.
	List(filter Filter) ([]*Person, error)

	// Delete removes a person by ID.
	Delete(id string) error
}

// Filter controls which persons are returned by List.
type Filter struct {
	Role   *Role `json:"role,omitempty"`
	Active *bool `json:"active,omitempty"`
	Limit  int   `json:"limit,omitempty"`
	Offset int   `json:"offset,omitempty"`
}
