package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/crewdeck/crewdeck/person"
	"github.com/crewdeck/crewdeck/project"
	"github.com/crewdeck/crewdeck/task"
)

// PersonService implements registration, activation, role changes, and
// referentially guarded deletion.
type PersonService struct {
	persons  person.Store
	projects project.Store
	tasks    task.Store
	logger   *slog.Logger
}

// NewPersonService creates a PersonService over the given stores.
func NewPersonService(persons person.Store, projects project.Store, tasks task.Store, logger *slog.Logger) *PersonService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersonService{persons: persons, projects: projects, tasks: tasks, logger: logger}
}

// Registration carries the inputs for Register.
type Registration struct {
	Username     string
	FullName     string
	Role         person.Role
	PasswordHash string
}

// Register creates an active person with the given role.
func (s *PersonService) Register(ctx context.Context, in Registration) (*person.Person, error) {
	username := strings.TrimSpace(in.Username)
	fullName := strings.TrimSpace(in.FullName)
	if username == "" {
		return nil, invalidf("username must not be blank")
	}
	if fullName == "" {
		return nil, invalidf("full name must not be blank")
	}
	if !in.Role.Valid() {
		return nil, invalidf("unknown role %q", in.Role)
	}
	if existing, err := s.persons.GetByUsername(username); err == nil && existing != nil {
		return nil, invalidf("username %q is already taken", username)
	}

	p := &person.Person{
		Username:     username,
		FullName:     fullName,
		Role:         in.Role,
		Active:       true,
		PasswordHash: in.PasswordHash,
	}
	if _, err := s.persons.Create(p); err != nil {
		return nil, err
	}
	s.logger.Info("person registered",
		slog.String("person", p.ID),
		slog.String("role", string(p.Role)))
	return p, nil
}

// Get loads a person by id.
func (s *PersonService) Get(ctx context.Context, id string) (*person.Person, error) {
	p, err := s.persons.Get(id)
	if err != nil {
		return nil, wrapPersonErr(err, id)
	}
	return p, nil
}

// GetByUsername loads a person by unique username.
func (s *PersonService) GetByUsername(ctx context.Context, username string) (*person.Person, error) {
	p, err := s.persons.GetByUsername(username)
	if err != nil {
		return nil, wrapPersonErr(err, username)
	}
	return p, nil
}

// List returns persons matching the filter.
func (s *PersonService) List(ctx context.Context, filter person.Filter) ([]*person.Person, error) {
	return s.persons.List(filter)
}

// SetActive flips the active flag. Deactivation is the soft delete: the
// person keeps their references but can no longer be assigned or lead.
func (s *PersonService) SetActive(ctx context.Context, id string, active bool) (*person.Person, error) {
	p, err := s.persons.Get(id)
	if err != nil {
		return nil, wrapPersonErr(err, id)
	}
	if p.Active == active {
		return p, nil
	}
	p.Active = active
	if err := s.persons.Update(p); err != nil {
		return nil, wrapPersonErr(err, id)
	}
	return p, nil
}

// ChangeRole updates a person's role. Demoting to collaborator is refused
// while the person still leads projects.
func (s *PersonService) ChangeRole(ctx context.Context, id string, role person.Role) (*person.Person, error) {
	if !role.Valid() {
		return nil, invalidf("unknown role %q", role)
	}
	p, err := s.persons.Get(id)
	if err != nil {
		return nil, wrapPersonErr(err, id)
	}
	if p.Role == role {
		return p, nil
	}
	if !role.CanLead() && len(p.LeadProjectIDs) > 0 {
		return nil, invalidf("person %s still leads %d project(s) and cannot become %s", id, len(p.LeadProjectIDs), role)
	}
	p.Role = role
	if err := s.persons.Update(p); err != nil {
		return nil, wrapPersonErr(err, id)
	}
	return p, nil
}

// Delete hard-deletes a person. It is refused while the person leads any
// project or is assigned any unfinished task; collaborator links are
// detached from the affected projects first.
func (s *PersonService) Delete(ctx context.Context, id string) error {
	p, err := s.persons.Get(id)
	if err != nil {
		return wrapPersonErr(err, id)
	}
	if len(p.LeadProjectIDs) > 0 {
		return invalidf("person %s still leads %d project(s)", id, len(p.LeadProjectIDs))
	}

	assigned, err := s.tasks.List(task.Filter{AssignedTo: id})
	if err != nil {
		return err
	}
	for _, t := range assigned {
		if t.Status != task.StatusCompleted {
			return invalidf("person %s is still assigned to open task %s", id, t.ID)
		}
	}

	// Detach collaborator links, project side first.
	for _, projectID := range p.CollaboratorProjectIDs {
		proj, err := s.projects.Get(projectID)
		if err != nil {
			continue // project already gone
		}
		if proj.RemoveCollaboratorID(id) {
			if err := s.projects.Update(proj); err != nil {
				return wrapProjectErr(err, projectID)
			}
		}
	}

	if err := s.persons.Delete(id); err != nil {
		return wrapPersonErr(err, id)
	}
	s.logger.Info("person deleted", slog.String("person", id))
	return nil
}
