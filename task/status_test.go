package task

import "testing"

var allStatuses = []Status{
	StatusPending, StatusInProgress, StatusInReview, StatusBlocked, StatusCompleted,
}

func TestCanTransition_Matrix(t *testing.T) {
	legal := map[Status][]Status{
		StatusPending:    {StatusInProgress},
		StatusInProgress: {StatusInReview, StatusBlocked, StatusPending},
		StatusBlocked:    {StatusInProgress},
		StatusInReview:   {StatusCompleted, StatusInProgress},
		StatusCompleted:  {},
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

func TestCanTransition_PendingToCompletedRejected(t *testing.T) {
	if CanTransition(StatusPending, StatusCompleted) {
		t.Error("pending may not jump straight to completed")
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range allStatuses {
		want := s == StatusCompleted
		if got := Terminal(s); got != want {
			t.Errorf("Terminal(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestPriority_Valid(t *testing.T) {
	for p := PriorityLow; p <= PriorityCritical; p++ {
		if !p.Valid() {
			t.Errorf("Priority(%d).Valid() = false", p)
		}
	}
	if Priority(-1).Valid() || Priority(4).Valid() {
		t.Error("out-of-range priority reported valid")
	}
}
