// Package actorctx carries who is acting, and under which request, on a context.Context
// so code below the HTTP layer (stores, job producers, the log handler) can see it.
package actorctx

import "context"

type (
	userKey    struct{}
	requestKey struct{}
)

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

func UserIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userKey{}).(string)
	return v, ok && v != ""
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestKey{}, id)
}

func RequestIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestKey{}).(string)
	return v, ok && v != ""
}
