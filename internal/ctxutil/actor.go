// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// ActorKey is the context key for the acting user.
// Exported so it can be used consistently across packages.
type ActorKey struct{}

// Actor is the identity of the user on whose behalf a request runs.
type Actor struct {
	UID     string
	Email   string
	Name    string
	Role    string
	Diocese string
}

// WithActor returns a context with the actor embedded.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ActorKey{}, actor)
}

// ActorFromContext returns the actor from context and whether one was set.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if v, ok := ctx.Value(ActorKey{}).(Actor); ok {
		return v, true
	}
	return Actor{}, false
}
