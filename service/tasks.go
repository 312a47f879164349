package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crewdeck/crewdeck/person"
	"github.com/crewdeck/crewdeck/project"
	"github.com/crewdeck/crewdeck/task"
)

// TaskService implements task lifecycle, authorization, and comment rules.
type TaskService struct {
	tasks      task.Store
	projects   project.Store
	persons    person.Store
	membership *Membership
	logger     *slog.Logger
	now        func() time.Time
}

// NewTaskService creates a TaskService over the given stores.
func NewTaskService(tasks task.Store, projects project.Store, persons person.Store, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{
		tasks:      tasks,
		projects:   projects,
		persons:    persons,
		membership: NewMembership(persons),
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// TaskCreate carries the inputs for Create.
type TaskCreate struct {
	Title       string
	Description string
	ProjectID   string
	AssignedTo  string
	CreatedBy   string
	Priority    task.Priority
	DueDate     *time.Time
	Tags        []string
}

// Create validates the owning project and optional assignee, persists a
// pending task, links the assignee as a project collaborator, and refreshes
// project progress.
func (s *TaskService) Create(ctx context.Context, in TaskCreate) (*task.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalidf("task title must not be blank")
	}
	if !in.Priority.Valid() {
		return nil, invalidf("unknown task priority %d", in.Priority)
	}

	p, err := s.projects.Get(in.ProjectID)
	if err != nil {
		return nil, wrapProjectErr(err, in.ProjectID)
	}
	if project.Terminal(p.Status) {
		return nil, invalidf("project %s is %s and cannot accept new tasks", p.ID, p.Status)
	}

	if _, err := s.persons.Get(in.CreatedBy); err != nil {
		return nil, wrapPersonErr(err, in.CreatedBy)
	}
	if in.AssignedTo != "" {
		assignee, err := s.persons.Get(in.AssignedTo)
		if err != nil {
			return nil, wrapPersonErr(err, in.AssignedTo)
		}
		if !assignee.Active {
			return nil, invalidf("person %s is inactive and cannot be assigned", in.AssignedTo)
		}
	}

	t := &task.Task{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		ProjectID:   in.ProjectID,
		AssignedTo:  in.AssignedTo,
		CreatedBy:   in.CreatedBy,
		Status:      task.StatusPending,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		Tags:        in.Tags,
	}
	if _, err := s.tasks.Create(t); err != nil {
		return nil, err
	}

	if in.AssignedTo != "" && in.AssignedTo != p.LeaderID {
		if err := s.linkCollaborator(p, in.AssignedTo); err != nil {
			return nil, err
		}
	}
	if err := recomputeProgress(s.projects, s.tasks, p); err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		slog.String("task", t.ID),
		slog.String("project", t.ProjectID))
	return t, nil
}

// linkCollaborator adds personID to p via the membership engine and persists
// both sides, project first.
func (s *TaskService) linkCollaborator(p *project.Project, personID string) error {
	per, changed, err := s.membership.AddCollaborator(p, personID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := s.projects.Update(p); err != nil {
		return wrapProjectErr(err, p.ID)
	}
	return wrapPersonErr(s.persons.Update(per), personID)
}

// Get loads a task by id.
func (s *TaskService) Get(ctx context.Context, id string) (*task.Task, error) {
	t, err := s.tasks.Get(id)
	if err != nil {
		return nil, wrapTaskErr(err, id)
	}
	return t, nil
}

// List returns tasks matching the filter.
func (s *TaskService) List(ctx context.Context, filter task.Filter) ([]*task.Task, error) {
	return s.tasks.List(filter)
}

// UpdateStatus moves a task to newStatus on behalf of actorID. The move must
// be legal per the task state machine, and the actor must be the assignee,
// the project leader, or an admin. Completion stamps CompletedAt and the
// owning project's progress is refreshed.
func (s *TaskService) UpdateStatus(ctx context.Context, taskID string, newStatus task.Status, actorID string) (*task.Task, error) {
	t, err := s.tasks.Get(taskID)
	if err != nil {
		return nil, wrapTaskErr(err, taskID)
	}
	if !newStatus.Valid() {
		return nil, invalidf("unknown task status %q", newStatus)
	}
	if !task.CanTransition(t.Status, newStatus) {
		return nil, &TransitionError{Entity: "task", From: string(t.Status), To: string(newStatus)}
	}

	p, err := s.projects.Get(t.ProjectID)
	if err != nil {
		return nil, wrapProjectErr(err, t.ProjectID)
	}
	actor, err := s.persons.Get(actorID)
	if err != nil {
		return nil, wrapPersonErr(err, actorID)
	}
	if !CanChangeTaskStatus(actor, t, p) {
		return nil, &AuthorizationError{
			Reason: "person " + actorID + " may not change the status of task " + taskID,
		}
	}

	t.Status = newStatus
	if newStatus == task.StatusCompleted {
		now := s.now()
		t.CompletedAt = &now
	}
	if err := s.tasks.Update(t); err != nil {
		return nil, wrapTaskErr(err, taskID)
	}
	if err := recomputeProgress(s.projects, s.tasks, p); err != nil {
		return nil, err
	}

	s.logger.Info("task status changed",
		slog.String("task", taskID),
		slog.String("status", string(newStatus)),
		slog.String("actor", actorID))
	return t, nil
}

// TaskUpdate carries the optional fields of Update; nil fields are left
// untouched. ProjectID and CreatedBy are immutable and not updatable.
type TaskUpdate struct {
	Title       *string
	Description *string
	AssignedTo  *string
	Priority    *task.Priority
	DueDate     *time.Time
	Tags        *[]string
}

// Update applies the non-nil fields of in to the task. An assignee change
// revalidates the person and links them as a project collaborator.
func (s *TaskService) Update(ctx context.Context, taskID string, in TaskUpdate) (*task.Task, error) {
	t, err := s.tasks.Get(taskID)
	if err != nil {
		return nil, wrapTaskErr(err, taskID)
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, invalidf("task title must not be blank")
		}
		t.Title = title
	}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, invalidf("unknown task priority %d", *in.Priority)
		}
		t.Priority = *in.Priority
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}
	if in.Tags != nil {
		t.Tags = *in.Tags
	}

	var reassignedTo string
	if in.AssignedTo != nil && *in.AssignedTo != t.AssignedTo {
		if *in.AssignedTo != "" {
			assignee, err := s.persons.Get(*in.AssignedTo)
			if err != nil {
				return nil, wrapPersonErr(err, *in.AssignedTo)
			}
			if !assignee.Active {
				return nil, invalidf("person %s is inactive and cannot be assigned", *in.AssignedTo)
			}
			reassignedTo = *in.AssignedTo
		}
		t.AssignedTo = *in.AssignedTo
	}

	if err := s.tasks.Update(t); err != nil {
		return nil, wrapTaskErr(err, taskID)
	}

	if reassignedTo != "" {
		p, err := s.projects.Get(t.ProjectID)
		if err != nil {
			return nil, wrapProjectErr(err, t.ProjectID)
		}
		if reassignedTo != p.LeaderID {
			if err := s.linkCollaborator(p, reassignedTo); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

// AddComment appends a comment with a server-assigned timestamp. The author
// must exist and the text must not be blank after trimming.
func (s *TaskService) AddComment(ctx context.Context, taskID, authorID, text string) (*task.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalidf("comment text must not be blank")
	}

	t, err := s.tasks.Get(taskID)
	if err != nil {
		return nil, wrapTaskErr(err, taskID)
	}
	if _, err := s.persons.Get(authorID); err != nil {
		return nil, wrapPersonErr(err, authorID)
	}

	t.Comments = append(t.Comments, task.Comment{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: s.now(),
	})
	if err := s.tasks.Update(t); err != nil {
		return nil, wrapTaskErr(err, taskID)
	}
	return t, nil
}

// Delete removes a task and refreshes the owning project's progress.
func (s *TaskService) Delete(ctx context.Context, taskID string) error {
	t, err := s.tasks.Get(taskID)
	if err != nil {
		return wrapTaskErr(err, taskID)
	}
	if err := s.tasks.Delete(taskID); err != nil {
		return wrapTaskErr(err, taskID)
	}
	p, err := s.projects.Get(t.ProjectID)
	if err != nil {
		return wrapProjectErr(err, t.ProjectID)
	}
	return recomputeProgress(s.projects, s.tasks, p)
}
