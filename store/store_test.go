package store

import (
	"errors"
	"os"
	"testing"

	"github.com/crewdeck/crewdeck/person"
	"github.com/crewdeck/crewdeck/project"
	"github.com/crewdeck/crewdeck/task"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	f, err := os.CreateTemp("", "crewdeck-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	f.Close()
	path := f.Name()
	t.Cleanup(func() { os.Remove(path) })

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPersonStore_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	persons := s.Persons()

	p := &person.Person{
		Username:       "alice",
		FullName:       "Alice Ames",
		Role:           person.RoleLeader,
		Active:         true,
		LeadProjectIDs: []string{"p1"},
	}
	id, err := persons.Create(p)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == "" {
		t.Fatal("Create returned empty ID")
	}
	if p.Version != 1 {
		t.Errorf("Version = %d, want 1", p.Version)
	}

	got, err := persons.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FullName != "Alice Ames" {
		t.Errorf("FullName = %q, want Alice Ames", got.FullName)
	}
	if got.Role != person.RoleLeader {
		t.Errorf("Role = %q, want leader", got.Role)
	}
	if len(got.LeadProjectIDs) != 1 || got.LeadProjectIDs[0] != "p1" {
		t.Errorf("LeadProjectIDs = %v, want [p1]", got.LeadProjectIDs)
	}

	byName, err := persons.GetByUsername("alice")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if byName.ID != id {
		t.Errorf("GetByUsername ID = %q, want %q", byName.ID, id)
	}
}

func TestPersonStore_Get_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Persons().Get("nonexistent")
	if !errors.Is(err, person.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPersonStore_Update_VersionConflict(t *testing.T) {
	s := newTestStore(t)
	persons := s.Persons()

	p := &person.Person{Username: "bob", FullName: "Bob", Role: person.RoleCollaborator, Active: true}
	if _, err := persons.Create(p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	stale, err := persons.Get(p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	p.FullName = "Bob B."
	if err := persons.Update(p); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.Version != 2 {
		t.Errorf("Version after update = %d, want 2", p.Version)
	}

	stale.FullName = "Robert"
	err = persons.Update(stale)
	if !errors.Is(err, person.ErrVersionConflict) {
		t.Fatalf("stale update err = %v, want ErrVersionConflict", err)
	}
}

func TestPersonStore_List(t *testing.T) {
	s := newTestStore(t)
	persons := s.Persons()

	seed := []*person.Person{
		{Username: "a", FullName: "A", Role: person.RoleAdmin, Active: true},
		{Username: "b", FullName: "B", Role: person.RoleLeader, Active: true},
		{Username: "c", FullName: "C", Role: person.RoleLeader, Active: false},
	}
	for _, p := range seed {
		if _, err := persons.Create(p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	leader := person.RoleLeader
	leaders, err := persons.List(person.Filter{Role: &leader})
	if err != nil {
		t.Fatalf("List leaders: %v", err)
	}
	if len(leaders) != 2 {
		t.Errorf("List leaders: got %d, want 2", len(leaders))
	}

	active := true
	activeLeaders, err := persons.List(person.Filter{Role: &leader, Active: &active})
	if err != nil {
		t.Fatalf("List active leaders: %v", err)
	}
	if len(activeLeaders) != 1 {
		t.Errorf("List active leaders: got %d, want 1", len(activeLeaders))
	}
}

func TestProjectStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	projects := s.Projects()

	p := &project.Project{
		Name:            "Launch",
		Description:     "Ship it",
		LeaderID:        "alice",
		CollaboratorIDs: []string{"bob"},
		Status:          project.StatusPlanning,
	}
	id, err := projects.Create(p)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := projects.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != project.StatusPlanning {
		t.Errorf("Status = %q, want planning", got.Status)
	}
	if !got.HasCollaborator("bob") {
		t.Error("collaborator bob lost in round trip")
	}

	got.Status = project.StatusInProgress
	got.Progress = 40
	if err := projects.Update(got); err != nil {
		t.Fatalf("Update: %v", err)
	}

	again, err := projects.Get(id)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if again.Progress != 40 {
		t.Errorf("Progress = %d, want 40", again.Progress)
	}
	if again.Version != 2 {
		t.Errorf("Version = %d, want 2", again.Version)
	}
}

func TestProjectStore_List_Filters(t *testing.T) {
	s := newTestStore(t)
	projects := s.Projects()

	seed := []*project.Project{
		{Name: "a", Description: "d", LeaderID: "x", Status: project.StatusPlanning},
		{Name: "b", Description: "d", LeaderID: "x", Status: project.StatusInProgress},
		{Name: "c", Description: "d", LeaderID: "y", Status: project.StatusInProgress, Archived: true},
	}
	for _, p := range seed {
		if _, err := projects.Create(p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	inProgress := project.StatusInProgress
	got, err := projects.List(project.Filter{Status: &inProgress})
	if err != nil {
		t.Fatalf("List by status: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("List in_progress: got %d, want 2", len(got))
	}

	unarchived := false
	got, err = projects.List(project.Filter{Status: &inProgress, Archived: &unarchived})
	if err != nil {
		t.Fatalf("List unarchived: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("List unarchived in_progress: got %d, want 1", len(got))
	}
}

func TestTaskStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	tasks := s.Tasks()

	tk := &task.Task{
		Title:       "Write docs",
		Description: "All of them",
		ProjectID:   "p1",
		CreatedBy:   "alice",
		AssignedTo:  "bob",
		Status:      task.StatusPending,
		Priority:    task.PriorityHigh,
		Tags:        []string{"docs", "backend"},
	}
	id, err := tasks.Create(tk)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := tasks.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Priority != task.PriorityHigh {
		t.Errorf("Priority = %d, want high", got.Priority)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "docs" {
		t.Errorf("Tags = %v, want [docs backend]", got.Tags)
	}

	got.Comments = append(got.Comments, task.Comment{ID: "c1", AuthorID: "alice", Text: "hi"})
	if err := tasks.Update(got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, err := tasks.Get(id)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if len(again.Comments) != 1 || again.Comments[0].Text != "hi" {
		t.Errorf("Comments = %v, want the appended comment", again.Comments)
	}
}

func TestTaskStore_List_Filters(t *testing.T) {
	s := newTestStore(t)
	tasks := s.Tasks()

	seed := []*task.Task{
		{Title: "t1", Description: "d", ProjectID: "p1", CreatedBy: "x", AssignedTo: "bob", Status: task.StatusPending},
		{Title: "t2", Description: "d", ProjectID: "p1", CreatedBy: "x", AssignedTo: "carol", Status: task.StatusCompleted},
		{Title: "t3", Description: "d", ProjectID: "p2", CreatedBy: "x", AssignedTo: "bob", Status: task.StatusPending},
	}
	for _, tk := range seed {
		if _, err := tasks.Create(tk); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	p1, err := tasks.List(task.Filter{ProjectID: "p1"})
	if err != nil {
		t.Fatalf("List p1: %v", err)
	}
	if len(p1) != 2 {
		t.Errorf("List p1: got %d, want 2", len(p1))
	}

	bobs, err := tasks.List(task.Filter{AssignedTo: "bob"})
	if err != nil {
		t.Fatalf("List bob: %v", err)
	}
	if len(bobs) != 2 {
		t.Errorf("List bob: got %d, want 2", len(bobs))
	}

	pending := task.StatusPending
	pendingList, err := tasks.List(task.Filter{Status: &pending})
	if err != nil {
		t.Fatalf("List pending: %v", err)
	}
	if len(pendingList) != 2 {
		t.Errorf("List pending: got %d, want 2", len(pendingList))
	}
}

func TestTaskStore_DeleteByProject(t *testing.T) {
	s := newTestStore(t)
	tasks := s.Tasks()

	for i := 0; i < 3; i++ {
		tk := &task.Task{Title: "t", Description: "d", ProjectID: "p1", CreatedBy: "x", Status: task.StatusPending}
		if _, err := tasks.Create(tk); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	other := &task.Task{Title: "t", Description: "d", ProjectID: "p2", CreatedBy: "x", Status: task.StatusPending}
	if _, err := tasks.Create(other); err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := tasks.DeleteByProject("p1")
	if err != nil {
		t.Fatalf("DeleteByProject: %v", err)
	}
	if n != 3 {
		t.Errorf("DeleteByProject removed %d, want 3", n)
	}

	left, err := tasks.List(task.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(left) != 1 || left[0].ProjectID != "p2" {
		t.Errorf("remaining tasks = %v, want only the p2 task", left)
	}
}

func TestTaskStore_Delete_NotFound(t *testing.T) {
	s := newTestStore(t)
	if err := s.Tasks().Delete("nonexistent"); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
