package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/search"

	"github.com/crewdeck/crewdeck/person"
	"github.com/crewdeck/crewdeck/project"
	"github.com/crewdeck/crewdeck/task"
)

// ProjectService implements project lifecycle and membership operations.
type ProjectService struct {
	projects   project.Store
	persons    person.Store
	tasks      task.Store
	membership *Membership
	logger     *slog.Logger
}

// NewProjectService creates a ProjectService over the given stores.
func NewProjectService(projects project.Store, persons person.Store, tasks task.Store, logger *slog.Logger) *ProjectService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectService{
		projects:   projects,
		persons:    persons,
		tasks:      tasks,
		membership: NewMembership(persons),
		logger:     logger,
	}
}

// ProjectUpdate carries the optional fields of an update; nil fields are
// left untouched.
type ProjectUpdate struct {
	Name        *string
	Description *string
	LeaderID    *string
	Status      *project.Status
	StartDate   *time.Time
	EndDate     *time.Time
}

// Create validates the leader, initializes a project in planning with zero
// progress, and registers the leader back-reference.
func (s *ProjectService) Create(ctx context.Context, name, description, leaderID string) (*project.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("project name must not be blank")
	}

	leader, err := s.persons.Get(leaderID)
	if err != nil {
		return nil, wrapPersonErr(err, leaderID)
	}
	if !leader.Active {
		return nil, invalidf("person %s is inactive and cannot lead a project", leaderID)
	}
	if !leader.Role.CanLead() {
		return nil, invalidf("person %s has role %s and cannot lead a project", leaderID, leader.Role)
	}

	p := &project.Project{
		Name:        name,
		Description: strings.TrimSpace(description),
		LeaderID:    leaderID,
		Status:      project.StatusPlanning,
		Progress:    0,
		Archived:    false,
	}
	if _, err := s.projects.Create(p); err != nil {
		return nil, err
	}

	leader.AddLeadProject(p.ID)
	if err := s.persons.Update(leader); err != nil {
		return nil, wrapPersonErr(err, leaderID)
	}

	s.logger.Info("project created",
		slog.String("project", p.ID),
		slog.String("leader", leaderID))
	return p, nil
}

// Get loads a project by id.
func (s *ProjectService) Get(ctx context.Context, id string) (*project.Project, error) {
	p, err := s.projects.Get(id)
	if err != nil {
		return nil, wrapProjectErr(err, id)
	}
	return p, nil
}

// List returns projects matching the filter.
func (s *ProjectService) List(ctx context.Context, filter project.Filter) ([]*project.Project, error) {
	return s.projects.List(filter)
}

// Update applies the non-nil fields of in to the project. A leader change
// goes through the membership engine; a status change must be legal per the
// project state machine.
func (s *ProjectService) Update(ctx context.Context, id string, in ProjectUpdate) (*project.Project, error) {
	p, err := s.projects.Get(id)
	if err != nil {
		return nil, wrapProjectErr(err, id)
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalidf("project name must not be blank")
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.StartDate != nil {
		p.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		p.EndDate = in.EndDate
	}

	var changed []*person.Person
	if in.LeaderID != nil && *in.LeaderID != p.LeaderID {
		changed, err = s.membership.AssignLeader(p, *in.LeaderID)
		if err != nil {
			return nil, err
		}
	}

	if in.Status != nil && *in.Status != p.Status {
		if !in.Status.Valid() {
			return nil, invalidf("unknown project status %q", *in.Status)
		}
		if !project.CanTransition(p.Status, *in.Status) {
			return nil, &TransitionError{Entity: "project", From: string(p.Status), To: string(*in.Status)}
		}
		p.Status = *in.Status
	}

	// Project first, then the affected person records.
	if err := s.projects.Update(p); err != nil {
		return nil, wrapProjectErr(err, id)
	}
	for _, per := range changed {
		if err := s.persons.Update(per); err != nil {
			return nil, wrapPersonErr(err, per.ID)
		}
	}
	return p, nil
}

// AddCollaborator adds personID as a collaborator, persisting only when a
// change actually occurred.
func (s *ProjectService) AddCollaborator(ctx context.Context, projectID, personID string) error {
	p, err := s.projects.Get(projectID)
	if err != nil {
		return wrapProjectErr(err, projectID)
	}
	per, changed, err := s.membership.AddCollaborator(p, personID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := s.projects.Update(p); err != nil {
		return wrapProjectErr(err, projectID)
	}
	return wrapPersonErr(s.persons.Update(per), personID)
}

// RemoveCollaborator removes personID from the collaborator set, persisting
// only when a change actually occurred.
func (s *ProjectService) RemoveCollaborator(ctx context.Context, projectID, personID string) error {
	p, err := s.projects.Get(projectID)
	if err != nil {
		return wrapProjectErr(err, projectID)
	}
	per, changed, err := s.membership.RemoveCollaborator(p, personID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := s.projects.Update(p); err != nil {
		return wrapProjectErr(err, projectID)
	}
	return wrapPersonErr(s.persons.Update(per), personID)
}

// SyncCollaboratorsFromTasks derives missing collaborator links from task
// assignments and returns how many were added. Nothing is persisted when the
// count is zero.
func (s *ProjectService) SyncCollaboratorsFromTasks(ctx context.Context, projectID string) (int, error) {
	p, err := s.projects.Get(projectID)
	if err != nil {
		return 0, wrapProjectErr(err, projectID)
	}
	tasks, err := s.tasks.List(task.Filter{ProjectID: projectID})
	if err != nil {
		return 0, err
	}
	added, err := s.membership.ReconcileFromTasks(p, tasks)
	if err != nil {
		return 0, err
	}
	if len(added) == 0 {
		return 0, nil
	}
	if err := s.projects.Update(p); err != nil {
		return 0, wrapProjectErr(err, projectID)
	}
	for _, per := range added {
		if err := s.persons.Update(per); err != nil {
			return 0, wrapPersonErr(err, per.ID)
		}
	}
	s.logger.Info("collaborators reconciled from tasks",
		slog.String("project", projectID),
		slog.Int("added", len(added)))
	return len(added), nil
}

// RecomputeProgress refreshes the derived progress percentage from the
// project's task completion ratio and returns the new value.
func (s *ProjectService) RecomputeProgress(ctx context.Context, projectID string) (int, error) {
	p, err := s.projects.Get(projectID)
	if err != nil {
		return 0, wrapProjectErr(err, projectID)
	}
	if err := recomputeProgress(s.projects, s.tasks, p); err != nil {
		return 0, err
	}
	return p.Progress, nil
}

// recomputeProgress reloads the project's tasks and persists the derived
// percentage. Shared by ProjectService and TaskService.
func recomputeProgress(projects project.Store, tasks task.Store, p *project.Project) error {
	list, err := tasks.List(task.Filter{ProjectID: p.ID})
	if err != nil {
		return err
	}
	completed := 0
	for _, t := range list {
		if t.Status == task.StatusCompleted {
			completed++
		}
	}
	p.Progress = project.ComputeProgress(completed, len(list))
	return wrapProjectErr(projects.Update(p), p.ID)
}

// SetArchived flips the archived flag.
func (s *ProjectService) SetArchived(ctx context.Context, projectID string, archived bool) (*project.Project, error) {
	p, err := s.projects.Get(projectID)
	if err != nil {
		return nil, wrapProjectErr(err, projectID)
	}
	if p.Archived == archived {
		return p, nil
	}
	p.Archived = archived
	if err := s.projects.Update(p); err != nil {
		return nil, wrapProjectErr(err, projectID)
	}
	return p, nil
}

// Delete removes a project and all of its tasks, then clears the membership
// back-references of everyone involved.
func (s *ProjectService) Delete(ctx context.Context, projectID string) error {
	p, err := s.projects.Get(projectID)
	if err != nil {
		return wrapProjectErr(err, projectID)
	}

	if _, err := s.tasks.DeleteByProject(projectID); err != nil {
		return err
	}
	if err := s.projects.Delete(projectID); err != nil {
		return wrapProjectErr(err, projectID)
	}

	ids := append([]string{p.LeaderID}, p.CollaboratorIDs...)
	for _, id := range ids {
		per, err := s.persons.Get(id)
		if err != nil {
			continue // already gone, nothing to unlink
		}
		per.RemoveLeadProject(projectID)
		per.RemoveCollaboratorProject(projectID)
		if err := s.persons.Update(per); err != nil {
			return wrapPersonErr(err, id)
		}
	}
	s.logger.Info("project deleted", slog.String("project", projectID))
	return nil
}

// SearchFilter controls Search. Text matches name or description
// case-insensitively; Status narrows to one status; archived projects are
// hidden unless IncludeArchived is set. All filters are ANDed.
type SearchFilter struct {
	Text            string
	Status          *project.Status
	IncludeArchived bool
}

// Search returns projects matching the filter.
func (s *ProjectService) Search(ctx context.Context, filter SearchFilter) ([]*project.Project, error) {
	listFilter := project.Filter{Status: filter.Status}
	if !filter.IncludeArchived {
		archived := false
		listFilter.Archived = &archived
	}
	candidates, err := s.projects.List(listFilter)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(filter.Text)
	if text == "" {
		return candidates, nil
	}

	matcher := search.New(language.Und, search.IgnoreCase)
	out := make([]*project.Project, 0, len(candidates))
	for _, p := range candidates {
		if start, _ := matcher.IndexString(p.Name, text); start >= 0 {
			out = append(out, p)
			continue
		}
		if start, _ := matcher.IndexString(p.Description, text); start >= 0 {
			out = append(out, p)
		}
	}
	return out, nil
}
