package project

import "testing"

var allStatuses = []Status{
	StatusPlanning, StatusInProgress, StatusPaused, StatusCompleted, StatusCancelled,
}

func TestCanTransition_Matrix(t *testing.T) {
	legal := map[Status][]Status{
		StatusPlanning:   {StatusInProgress, StatusCancelled},
		StatusInProgress: {StatusPaused, StatusCompleted, StatusCancelled},
		StatusPaused:     {StatusInProgress, StatusCancelled},
		StatusCompleted:  {},
		StatusCancelled:  {},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := false
			for _, next := range legal[from] {
				if next == to {
					want = true
				}
			}
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransition_SelfAlwaysRejected(t *testing.T) {
	for _, s := range allStatuses {
		if CanTransition(s, s) {
			t.Errorf("CanTransition(%s, %s) = true, want false", s, s)
		}
	}
}

func TestTerminal(t *testing.T) {
	want := map[Status]bool{
		StatusPlanning:   false,
		StatusInProgress: false,
		StatusPaused:     false,
		StatusCompleted:  true,
		StatusCancelled:  true,
	}
	for s, terminal := range want {
		if got := Terminal(s); got != terminal {
			t.Errorf("Terminal(%s) = %v, want %v", s, got, terminal)
		}
	}
	if Terminal(Status("bogus")) {
		t.Error("Terminal(bogus) = true, want false")
	}
}

func TestNextStates_TerminalEmpty(t *testing.T) {
	if n := len(NextStates(StatusCompleted)); n != 0 {
		t.Errorf("NextStates(completed) has %d entries, want 0", n)
	}
	if n := len(NextStates(StatusCancelled)); n != 0 {
		t.Errorf("NextStates(cancelled) has %d entries, want 0", n)
	}
}

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		completed, total, want int
	}{
		{3, 10, 30},
		{0, 0, 0},
		{7, 9, 78},
		{9, 9, 100},
		{0, 5, 0},
		{1, 3, 33},
		{2, 3, 67},
	}
	for _, tt := range tests {
		if got := ComputeProgress(tt.completed, tt.total); got != tt.want {
			t.Errorf("ComputeProgress(%d, %d) = %d, want %d", tt.completed, tt.total, got, tt.want)
		}
	}
}

func TestCollaboratorSet(t *testing.T) {
	p := &Project{ID: "p1"}

	if !p.AddCollaboratorID("a") {
		t.Error("first add reported no change")
	}
	if p.AddCollaboratorID("a") {
		t.Error("duplicate add reported a change")
	}
	if !p.HasCollaborator("a") {
		t.Error("HasCollaborator(a) = false after add")
	}
	if !p.RemoveCollaboratorID("a") {
		t.Error("remove reported no change")
	}
	if p.RemoveCollaboratorID("a") {
		t.Error("second remove reported a change")
	}
}
