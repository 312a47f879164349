package service

import (
	"context"
	"errors"
	"testing"

	"github.com/crewdeck/crewdeck/person"
	"github.com/crewdeck/crewdeck/project"
	"github.com/crewdeck/crewdeck/task"
)

func TestTaskCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	leader := env.seedPerson(t, person.RoleLeader)
	worker := env.seedPerson(t, person.RoleCollaborator)
	p := env.seedProject(t, leader.ID)

	tk, err := env.tasks.Create(ctx, TaskCreate{
		Title:      "  Fix the flake  ",
		ProjectID:  p.ID,
		CreatedBy:  leader.ID,
		AssignedTo: worker.ID,
		Priority:   task.PriorityHigh,
		Tags:       []string{"ci"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tk.Title != "Fix the flake" {
		t.Errorf("Title = %q, want trimmed", tk.Title)
	}
	if tk.Status != task.StatusPending {
		t.Errorf("Status = %q, want pending", tk.Status)
	}

	// The assignee becomes a collaborator automatically.
	if !env.mustGetProject(t, p.ID).HasCollaborator(worker.ID) {
		t.Error("assignee was not linked as collaborator")
	}
	if !contains(env.mustGetPerson(t, worker.ID).CollaboratorProjectIDs, p.ID) {
		t.Error("assignee's back-reference missing")
	}
}

func TestTaskCreate_LeaderAssigneeIsNotCollaborator(t *testing.T) {
	env := newTestEnv(t)
	leader := env.seedPerson(t, person.RoleLeader)
	p := env.seedProject(t, leader.ID)

	env.seedTask(t, p.ID, leader.ID, leader.ID)
	if env.mustGetProject(t, p.ID).HasCollaborator(leader.ID) {
		t.Error("leader must not enter the collaborator set via assignment")
	}
}

func TestTaskCreate_TerminalProjectRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	leader := env.seedPerson(t, person.RoleLeader)
	p := env.seedProject(t, leader.ID)

	cancelled := project.StatusCancelled
	if _, err := env.projects.Update(ctx, p.ID, ProjectUpdate{Status: &cancelled}); err != nil {
		t.Fatalf("cancel project: %v", err)
	}

	_, err := env.tasks.Create(ctx, TaskCreate{
		Title:     "too late",
		ProjectID: p.ID,
		CreatedBy: leader.ID,
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	list, err := env.taskStore.List(task.Filter{ProjectID: p.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("rejected create still wrote a task: %v", list)
	}
}

func TestTaskCreate_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	leader := env.seedPerson(t, person.RoleLeader)
	inactive := env.seedPerson(t, person.RoleCollaborator)
	if _, err := env.persons.SetActive(ctx, inactive.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	p := env.seedProject(t, leader.ID)

	tests := []struct {
		name string
		in   TaskCreate
		want any
	}{
		{"blank title", TaskCreate{Title: " ", ProjectID: p.ID, CreatedBy: leader.ID}, &ValidationError{}},
		{"bad priority", TaskCreate{Title: "t", ProjectID: p.ID, CreatedBy: leader.ID, Priority: 9}, &ValidationError{}},
		{"missing project", TaskCreate{Title: "t", ProjectID: "nope", CreatedBy: leader.ID}, &NotFoundError{}},
		{"missing creator", TaskCreate{Title: "t", ProjectID: p.ID, CreatedBy: "nope"}, &NotFoundError{}},
		{"missing assignee", TaskCreate{Title: "t", ProjectID: p.ID, CreatedBy: leader.ID, AssignedTo: "nope"}, &NotFoundError{}},
		{"inactive assignee", TaskCreate{Title: "t", ProjectID: p.ID, CreatedBy: leader.ID, AssignedTo: inactive.ID}, &ValidationError{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.tasks.Create(ctx, tt.in)
			switch tt.want.(type) {
			case *ValidationError:
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("err = %v, want ValidationError", err)
				}
			case *NotFoundError:
				var nfe *NotFoundError
				if !errors.As(err, &nfe) {
					t.Fatalf("err = %v, want NotFoundError", err)
				}
			}
		})
	}
}

func TestUpdateStatus_IllegalMoveRejectedForAnyone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedPerson(t, person.RoleAdmin)
	leader := env.seedPerson(t, person.RoleLeader)
	worker := env.seedPerson(t, person.RoleCollaborator)
	stranger := env.seedPerson(t, person.RoleCollaborator)
	p := env.seedProject(t, leader.ID)
	tk := env.seedTask(t, p.ID, leader.ID, worker.ID)

	// pending -> completed skips the pipeline, so even an admin is refused,
	// and the answer is about the transition, not the actor.
	for _, actor := range []string{admin.ID, leader.ID, worker.ID, stranger.ID} {
		_, err := env.tasks.UpdateStatus(ctx, tk.ID, task.StatusCompleted, actor)
		var terr *TransitionError
		if !errors.As(err, &terr) {
			t.Errorf("actor %s: err = %v, want TransitionError", actor, err)
		}
	}
}

func TestUpdateStatus_Authorization(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedPerson(t, person.RoleAdmin)
	leader := env.seedPerson(t, person.RoleLeader)
	worker := env.seedPerson(t, person.RoleCollaborator)
	stranger := env.seedPerson(t, person.RoleCollaborator)
	p := env.seedProject(t, leader.ID)
	tk := env.seedTask(t, p.ID, leader.ID, worker.ID)

	// A legal transition by an unrelated person is an authorization problem.
	_, err := env.tasks.UpdateStatus(ctx, tk.ID, task.StatusInProgress, stranger.ID)
	var aerr *AuthorizationError
	if !errors.As(err, &aerr) {
		t.Fatalf("stranger err = %v, want AuthorizationError", err)
	}

	// Assignee, leader, and admin may all drive the pipeline.
	if _, err := env.tasks.UpdateStatus(ctx, tk.ID, task.StatusInProgress, worker.ID); err != nil {
		t.Fatalf("assignee: %v", err)
	}
	if _, err := env.tasks.UpdateStatus(ctx, tk.ID, task.StatusBlocked, leader.ID); err != nil {
		t.Fatalf("leader: %v", err)
	}
	if _, err := env.tasks.UpdateStatus(ctx, tk.ID, task.StatusInProgress, admin.ID); err != nil {
		t.Fatalf("admin: %v", err)
	}
}

func TestUpdateStatus_InactiveActorRefused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	leader := env.seedPerson(t, person.RoleLeader)
	worker := env.seedPerson(t, person.RoleCollaborator)
	p := env.seedProject(t, leader.ID)
	tk := env.seedTask(t, p.ID, leader.ID, worker.ID)

	if _, err := env.persons.SetActive(ctx, worker.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	_, err := env.tasks.UpdateStatus(ctx, tk.ID, task.StatusInProgress, worker.ID)
	var aerr *AuthorizationError
	if !errors.As(err, &aerr) {
		t.Fatalf("err = %v, want AuthorizationError", err)
	}
}

func TestUpdateStatus_CompletionStampsAndRecomputes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	leader := env.seedPerson(t, person.RoleLeader)
	p := env.seedProject(t, leader.ID)
	tk := env.seedTask(t, p.ID, leader.ID, leader.ID)

	for _, next := range []task.Status{task.StatusInProgress, task.StatusInReview} {
		if _, err := env.tasks.UpdateStatus(ctx, tk.ID, next, leader.ID); err != nil {
			t.Fatalf("to %s: %v", next, err)
		}
	}
	done, err := env.tasks.UpdateStatus(ctx, tk.ID, task.StatusCompleted, leader.ID)
	if err != nil {
		t.Fatalf("to completed: %v", err)
	}
	if done.CompletedAt == nil {
		t.Error("CompletedAt not stamped on completion")
	}
	if got := env.mustGetProject(t, p.ID).Progress; got != 100 {
		t.Errorf("Progress = %d, want 100", got)
	}
}

func TestTaskUpdate_ReassignLinksCollaborator(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	leader := env.seedPerson(t, person.RoleLeader)
	first := env.seedPerson(t, person.RoleCollaborator)
	second := env.seedPerson(t, person.RoleCollaborator)
	p := env.seedProject(t, leader.ID)
	tk := env.seedTask(t, p.ID, leader.ID, first.ID)

	updated, err := env.tasks.Update(ctx, tk.ID, TaskUpdate{AssignedTo: &second.ID})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.AssignedTo != second.ID {
		t.Errorf("AssignedTo = %q, want %q", updated.AssignedTo, second.ID)
	}
	if !env.mustGetProject(t, p.ID).HasCollaborator(second.ID) {
		t.Error("new assignee not linked as collaborator")
	}
	// The previous assignee keeps their membership.
	if !env.mustGetProject(t, p.ID).HasCollaborator(first.ID) {
		t.Error("previous assignee lost collaborator membership on reassignment")
	}
}

func TestAddComment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	leader := env.seedPerson(t, person.RoleLeader)
	p := env.seedProject(t, leader.ID)
	tk := env.seedTask(t, p.ID, leader.ID, "")

	got, err := env.tasks.AddComment(ctx, tk.ID, leader.ID, "  looks good  ")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if len(got.Comments) != 1 {
		t.Fatalf("Comments = %d, want 1", len(got.Comments))
	}
	c := got.Comments[0]
	if c.Text != "looks good" {
		t.Errorf("Text = %q, want trimmed", c.Text)
	}
	if c.ID == "" || c.AuthorID != leader.ID || c.CreatedAt.IsZero() {
		t.Errorf("comment not fully populated: %+v", c)
	}

	if _, err := env.tasks.AddComment(ctx, tk.ID, leader.ID, "   "); err == nil {
		t.Error("blank comment accepted")
	}
	if _, err := env.tasks.AddComment(ctx, tk.ID, "no-such-person", "hi"); err == nil {
		t.Error("comment by unknown author accepted")
	}
}
