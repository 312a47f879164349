package server

import (
	"context"

	"github.com/crewdeck/crewdeck/person"
)

type contextKey int

const ctxKeyActor contextKey = 0

func contextWithActor(ctx context.Context, actor *person.Person) context.Context {
	return context.WithValue(ctx, ctxKeyActor, actor)
}

// ActorFrom returns the authenticated person stored in the request context,
// or nil if the request was not authenticated.
func ActorFrom(ctx context.Context) *person.Person {
	actor, _ := ctx.Value(ctxKeyActor).(*person.Person)
	return actor
}
