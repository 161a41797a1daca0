// Package session carries the acting shopper and the per-session checkout state.
package session

import (
	"context"

	"github.com/angelmondragon/storefront-checkout/pkg/enums"
)

// Actor is the identity checkout runs on behalf of.
type Actor struct {
	UserID        string
	Role          enums.Role
	Authenticated bool
}

// Guest is the actor of an unauthenticated request.
var Guest = Actor{Role: enums.RoleUser}

// EffectiveRole returns the pricing role, the user tier for guests.
func (a Actor) EffectiveRole() enums.Role {
	if !a.Authenticated || !a.Role.IsValid() {
		return enums.RoleUser
	}
	return a.Role
}

type contextKey struct{}

// WithActor stores the actor on the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, actor)
}

// ActorFromContext returns the actor placed by the auth middleware, Guest when absent.
func ActorFromContext(ctx context.Context) Actor {
	if ctx == nil {
		return Guest
	}
	if actor, ok := ctx.Value(contextKey{}).(Actor); ok {
		return actor
	}
	return Guest
}

// Service resolves the acting shopper.
type Service interface {
	Actor(ctx context.Context) Actor
}

// ContextService reads the actor from the request context.
type ContextService struct{}

// Actor implements Service.
func (ContextService) Actor(ctx context.Context) Actor {
	return ActorFromContext(ctx)
}

// Static always returns the same actor.
type Static Actor

// Actor implements Service.
func (s Static) Actor(context.Context) Actor {
	return Actor(s)
}
