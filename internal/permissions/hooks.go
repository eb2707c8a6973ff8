package permissions

import (
	"context"

	"github.com/google/uuid"
)

// Invalidator drops the feature-access cache entry for a client. Called
// after every committed mutation that changes what any professional can see.
type Invalidator interface {
	Invalidate(ctx context.Context, clientID uuid.UUID) error
}

// EventPublisher receives grant lifecycle events after commit. The
// notification fan-out subscribes here; delivery is at-least-once.
type EventPublisher interface {
	Publish(ctx context.Context, event GrantEvent)
}

// GrantEvent describes a committed change to a client's grants.
type GrantEvent struct {
	Type            string // grant, revoke, transfer
	ClientID        uuid.UUID
	RelationshipID  uuid.UUID
	PermissionSlug  string
	TransferredFrom *uuid.UUID // set on transfer: the relationship that lost the slug
}

// Hooks bundles the post-commit side effects. Both fields are optional;
// nil hooks are skipped.
type Hooks struct {
	Cache  Invalidator
	Events EventPublisher
}

func (h Hooks) invalidate(ctx context.Context, clientID uuid.UUID) {
	if h.Cache != nil {
		// Cache invalidation failures must not fail the committed mutation.
		_ = h.Cache.Invalidate(ctx, clientID)
	}
}

func (h Hooks) publish(ctx context.Context, event GrantEvent) {
	if h.Events != nil {
		h.Events.Publish(ctx, event)
	}
}
