package entities

import "context"

type contextKey string

const contextActorKey contextKey = "actor"

// WithActor binds the acting user to the request context. The binding is
// request-scoped; concurrent requests never observe each other's actor.
func WithActor(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, contextActorKey, user)
}

// ActorFromContext returns the acting user bound by the middleware.
func ActorFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(contextActorKey).(*User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}
