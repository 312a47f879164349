package service

import (
	"github.com/crewdeck/crewdeck/person"
	"github.com/crewdeck/crewdeck/project"
	"github.com/crewdeck/crewdeck/task"
)

// CanChangeTaskStatus reports whether actor may change the status of t.
// Allowed for the task's assignee, the owning project's leader, and admins.
func CanChangeTaskStatus(actor *person.Person, t *task.Task, p *project.Project) bool {
	if actor == nil || !actor.Active {
		return false
	}
	if actor.Role == person.RoleAdmin {
		return true
	}
	return actor.ID == t.AssignedTo || actor.ID == p.LeaderID
}
