package task

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusInReview   Status = "in_review"
	StatusBlocked    Status = "blocked"
	StatusCompleted  Status = "completed"
)

// transitions is the full legality table. Completed is terminal: it maps to
// an empty target list.
var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress},
	StatusInProgress: {StatusInReview, StatusBlocked, StatusPending},
	StatusBlocked:    {StatusInProgress},
	StatusInReview:   {StatusCompleted, StatusInProgress},
	StatusCompleted:  {},
}

// Valid reports whether s is a known task status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether a task may move from one status to another.
// Self-transitions and moves out of a terminal status are never allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no outgoing transitions.
func Terminal(s Status) bool {
	return s.Valid() && len(transitions[s]) == 0
}

// NextStates returns the legal target statuses from the given status.
func NextStates(from Status) []Status {
	next := transitions[from]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}
