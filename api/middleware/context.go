package middleware

import (
	"context"

	"github.com/macado/b2b-backend/internal/workflow"
)

type contextKey string

const ctxActor contextKey = "actor"

// WithActor injects the authenticated actor into the context.
func WithActor(ctx context.Context, actor workflow.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}

// ActorFromContext returns the actor set by Auth.
func ActorFromContext(ctx context.Context) (workflow.Actor, bool) {
	if ctx == nil {
		return workflow.Actor{}, false
	}
	actor, ok := ctx.Value(ctxActor).(workflow.Actor)
	return actor, ok
}

func UserIDFromContext(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok {
		return actor.UserID.String()
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok {
		return string(actor.Role)
	}
	return ""
}

func CustomerIDFromContext(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok && actor.CustomerID != nil {
		return actor.CustomerID.String()
	}
	return ""
}
