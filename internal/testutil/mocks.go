package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/peakform/coach-backend/internal/permissions"
)

// RecordingInvalidator captures cache invalidations for assertions.
type RecordingInvalidator struct {
	mu        sync.Mutex
	ClientIDs []uuid.UUID
}

func (r *RecordingInvalidator) Invalidate(ctx context.Context, clientID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ClientIDs = append(r.ClientIDs, clientID)
	return nil
}

func (r *RecordingInvalidator) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ClientIDs)
}

// RecordingPublisher captures post-commit grant events for assertions.
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []permissions.GrantEvent
}

func (r *RecordingPublisher) Publish(ctx context.Context, event permissions.GrantEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
}

func (r *RecordingPublisher) ByType(eventType string) []permissions.GrantEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []permissions.GrantEvent
	for _, e := range r.Events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
