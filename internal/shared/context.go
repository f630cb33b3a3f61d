package shared

import "context"

type actorContextKey struct{}

// ContextWithActor stores the authenticated mechanic id in context.
func ContextWithActor(ctx context.Context, mechanicID string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, mechanicID)
}

// ActorFromContext extracts the mechanic id from context. Empty when
// the request was not authenticated.
func ActorFromContext(ctx context.Context) string {
	id, _ := ctx.Value(actorContextKey{}).(string)
	return id
}
