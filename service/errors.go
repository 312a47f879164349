// Package service implements the consistency and lifecycle rules for
// persons, projects, and tasks: status machines gate transitions, the
// membership engine keeps cross-references consistent, and a central policy
// decides who may mutate what.
package service

import (
	"errors"
	"fmt"

	"github.com/crewdeck/crewdeck/person"
	"github.com/crewdeck/crewdeck/project"
	"github.com/crewdeck/crewdeck/task"
)

// NotFoundError reports that a referenced entity id does not resolve.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ValidationError reports malformed or rule-violating input. The caller must
// not retry without changing the input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// TransitionError reports a status change not permitted by the relevant
// state machine. It is distinct from ValidationError so callers can show the
// legal next states instead.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s status cannot change from %s to %s", e.Entity, e.From, e.To)
}

// AuthorizationError reports that the acting person lacks permission for the
// requested mutation.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string { return e.Reason }

// ConflictError reports that a save lost a race against a newer write of the
// same entity. Callers retry the whole operation on a fresh load.
type ConflictError struct {
	Entity string
	ID     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently", e.Entity, e.ID)
}

func invalidf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// wrapPersonErr translates store sentinels for persons into domain errors.
func wrapPersonErr(err error, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, person.ErrNotFound):
		return &NotFoundError{Entity: "person", ID: id}
	case errors.Is(err, person.ErrVersionConflict):
		return &ConflictError{Entity: "person", ID: id}
	}
	return err
}

// wrapProjectErr translates store sentinels for projects into domain errors.
func wrapProjectErr(err error, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, project.ErrNotFound):
		return &NotFoundError{Entity: "project", ID: id}
	case errors.Is(err, project.ErrVersionConflict):
		return &ConflictError{Entity: "project", ID: id}
	}
	return err
}

// wrapTaskErr translates store sentinels for tasks into domain errors.
func wrapTaskErr(err error, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, task.ErrNotFound):
		return &NotFoundError{Entity: "task", ID: id}
	case errors.Is(err, task.ErrVersionConflict):
		return &ConflictError{Entity: "task", ID: id}
	}
	return err
}
