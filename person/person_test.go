package person

import "testing"

func TestRole_CanLead(t *testing.T) {
	if !RoleAdmin.CanLead() || !RoleLeader.CanLead() {
		t.Error("admin and leader roles must be able to lead")
	}
	if RoleCollaborator.CanLead() {
		t.Error("collaborator role must not be able to lead")
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleLeader, RoleCollaborator} {
		if !r.Valid() {
			t.Errorf("Role(%s).Valid() = false", r)
		}
	}
	if Role("owner").Valid() {
		t.Error("unknown role reported valid")
	}
}

func TestMembershipSets_ExclusivePerProject(t *testing.T) {
	p := &Person{ID: "alice"}

	p.AddCollaboratorProject("p1")
	if !p.CollaboratesOn("p1") {
		t.Fatal("expected collaborator entry for p1")
	}

	// Promoting to leader of the same project must drop the collaborator entry.
	p.AddLeadProject("p1")
	if !p.Leads("p1") {
		t.Fatal("expected lead entry for p1")
	}
	if p.CollaboratesOn("p1") {
		t.Error("p1 present in both sets after promotion")
	}

	// While leading, a collaborator entry must not appear.
	p.AddCollaboratorProject("p1")
	if p.CollaboratesOn("p1") {
		t.Error("collaborator entry added while leading p1")
	}

	p.RemoveLeadProject("p1")
	if p.Leads("p1") {
		t.Error("lead entry survived removal")
	}
}

func TestMembershipSets_NoDuplicates(t *testing.T) {
	p := &Person{ID: "bob"}
	p.AddLeadProject("p1")
	p.AddLeadProject("p1")
	if len(p.LeadProjectIDs) != 1 {
		t.Errorf("LeadProjectIDs = %v, want a single entry", p.LeadProjectIDs)
	}

	p.AddCollaboratorProject("p2")
	p.AddCollaboratorProject("p2")
	if len(p.CollaboratorProjectIDs) != 1 {
		t.Errorf("CollaboratorProjectIDs = %v, want a single entry", p.CollaboratorProjectIDs)
	}
}
