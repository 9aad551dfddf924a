package domain

import (
	"context"
	"strings"
)

type actorKey struct{}

// Actor identifies who performed an admin action.
type Actor struct {
	Role      string
	IPAddress string
	UserAgent string
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, Actor{
		Role:      strings.TrimSpace(actor.Role),
		IPAddress: strings.TrimSpace(actor.IPAddress),
		UserAgent: strings.TrimSpace(actor.UserAgent),
	})
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok && actor.Role != ""
}
