package service

import (
	"errors"

	"github.com/crewdeck/crewdeck/person"
	"github.com/crewdeck/crewdeck/project"
	"github.com/crewdeck/crewdeck/task"
)

// Membership keeps Project.LeaderID/CollaboratorIDs and the mirrored
// Person.LeadProjectIDs/CollaboratorProjectIDs consistent with each other.
//
// All methods mutate loaded entities in memory only; they validate fully
// before touching anything, so an error leaves every entity unchanged.
// Persisting the results, project first and then the affected persons, is
// the caller's job.
type Membership struct {
	persons person.Store
}

// NewMembership creates a membership engine backed by the given person store.
func NewMembership(persons person.Store) *Membership {
	return &Membership{persons: persons}
}

// AssignLeader moves the leader slot of p to newLeaderID and returns the
// persons whose back-reference sets changed. The new leader must be active
// with a role that can lead. Reassigning to the current leader changes
// nothing and returns no persons.
func (m *Membership) AssignLeader(p *project.Project, newLeaderID string) ([]*person.Person, error) {
	if p.LeaderID == newLeaderID {
		return nil, nil
	}

	newLeader, err := m.persons.Get(newLeaderID)
	if err != nil {
		return nil, wrapPersonErr(err, newLeaderID)
	}
	if !newLeader.Active {
		return nil, invalidf("person %s is inactive and cannot lead a project", newLeaderID)
	}
	if !newLeader.Role.CanLead() {
		return nil, invalidf("person %s has role %s and cannot lead a project", newLeaderID, newLeader.Role)
	}

	var oldLeader *person.Person
	if p.LeaderID != "" {
		oldLeader, err = m.persons.Get(p.LeaderID)
		if err != nil && !errors.Is(err, person.ErrNotFound) {
			return nil, err
		}
	}

	// All validation passed; apply every side effect together.
	changed := []*person.Person{newLeader}
	if oldLeader != nil {
		oldLeader.RemoveLeadProject(p.ID)
		changed = append(changed, oldLeader)
	}
	if p.RemoveCollaboratorID(newLeaderID) {
		newLeader.RemoveCollaboratorProject(p.ID)
	}
	newLeader.AddLeadProject(p.ID)
	p.LeaderID = newLeaderID
	return changed, nil
}

// AddCollaborator adds personID to p's collaborator set and mirrors it on
// the person. Adding an existing collaborator is a no-op reported as
// changed=false; adding the leader is a ValidationError.
func (m *Membership) AddCollaborator(p *project.Project, personID string) (*person.Person, bool, error) {
	if personID == p.LeaderID {
		return nil, false, invalidf("person %s is the project leader: leader already assigned", personID)
	}
	if p.HasCollaborator(personID) {
		return nil, false, nil
	}

	per, err := m.persons.Get(personID)
	if err != nil {
		return nil, false, wrapPersonErr(err, personID)
	}
	if !per.Active {
		return nil, false, invalidf("person %s is inactive and cannot collaborate", personID)
	}

	p.AddCollaboratorID(personID)
	per.AddCollaboratorProject(p.ID)
	return per, true, nil
}

// RemoveCollaborator drops personID from both sides of the relation.
// Removing an absent collaborator is a no-op reported as changed=false.
func (m *Membership) RemoveCollaborator(p *project.Project, personID string) (*person.Person, bool, error) {
	if !p.HasCollaborator(personID) {
		return nil, false, nil
	}

	per, err := m.persons.Get(personID)
	if err != nil {
		return nil, false, wrapPersonErr(err, personID)
	}

	p.RemoveCollaboratorID(personID)
	per.RemoveCollaboratorProject(p.ID)
	return per, true, nil
}

// ReconcileFromTasks scans the project's tasks and adds every distinct
// assignee that is neither the leader nor already a collaborator. It returns
// the persons added, in first-seen order.
func (m *Membership) ReconcileFromTasks(p *project.Project, tasks []*task.Task) ([]*person.Person, error) {
	seen := make(map[string]bool)
	var added []*person.Person
	for _, t := range tasks {
		id := t.AssignedTo
		if id == "" || id == p.LeaderID || seen[id] || p.HasCollaborator(id) {
			continue
		}
		seen[id] = true
		per, changed, err := m.AddCollaborator(p, id)
		if err != nil {
			return added, err
		}
		if changed {
			added = append(added, per)
		}
	}
	return added, nil
}
