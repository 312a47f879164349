package service

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/crewdeck/crewdeck/person"
	"github.com/crewdeck/crewdeck/project"
	"github.com/crewdeck/crewdeck/store"
	"github.com/crewdeck/crewdeck/task"
)

// testEnv bundles a real store with the three services so tests exercise the
// same wiring the server uses.
type testEnv struct {
	persons  *PersonService
	projects *ProjectService
	tasks    *TaskService

	personStore  person.Store
	projectStore project.Store
	taskStore    task.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	f, err := os.CreateTemp("", "crewdeck-svc-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	f.Close()
	path := f.Name()
	t.Cleanup(func() { os.Remove(path) })

	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	persons := s.Persons()
	projects := s.Projects()
	tasks := s.Tasks()
	return &testEnv{
		persons:      NewPersonService(persons, projects, tasks, nil),
		projects:     NewProjectService(projects, persons, tasks, nil),
		tasks:        NewTaskService(tasks, projects, persons, nil),
		personStore:  persons,
		projectStore: projects,
		taskStore:    tasks,
	}
}

var usernameSeq int

// seedPerson registers an active person with the given role.
func (e *testEnv) seedPerson(t *testing.T, role person.Role) *person.Person {
	t.Helper()
	usernameSeq++
	p, err := e.persons.Register(context.Background(), Registration{
		Username: fmt.Sprintf("user%d", usernameSeq),
		FullName: fmt.Sprintf("User %d", usernameSeq),
		Role:     role,
	})
	if err != nil {
		t.Fatalf("seed person: %v", err)
	}
	return p
}

// seedProject creates a project led by leaderID.
func (e *testEnv) seedProject(t *testing.T, leaderID string) *project.Project {
	t.Helper()
	p, err := e.projects.Create(context.Background(), "Project", "seeded", leaderID)
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return p
}

// seedTask creates a pending task on projectID.
func (e *testEnv) seedTask(t *testing.T, projectID, createdBy, assignedTo string) *task.Task {
	t.Helper()
	tk, err := e.tasks.Create(context.Background(), TaskCreate{
		Title:      "Task",
		ProjectID:  projectID,
		CreatedBy:  createdBy,
		AssignedTo: assignedTo,
		Priority:   task.PriorityNormal,
	})
	if err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return tk
}

// mustGetPerson reloads a person straight from the store.
func (e *testEnv) mustGetPerson(t *testing.T, id string) *person.Person {
	t.Helper()
	p, err := e.personStore.Get(id)
	if err != nil {
		t.Fatalf("reload person %s: %v", id, err)
	}
	return p
}

// mustGetProject reloads a project straight from the store.
func (e *testEnv) mustGetProject(t *testing.T, id string) *project.Project {
	t.Helper()
	p, err := e.projectStore.Get(id)
	if err != nil {
		t.Fatalf("reload project %s: %v", id, err)
	}
	return p
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
