package permissions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peakform/coach-backend/generated/db"
	"github.com/peakform/coach-backend/internal/logging"
)

// Registry manages the platform-wide permission catalogue. Definitions are
// seeded by migration; admins can flip is_enabled and is_exclusive at
// runtime but never add or remove slugs through the API.
type Registry struct {
	pool    *pgxpool.Pool
	queries *db.Queries
	audit   *AuditLogger
}

func NewRegistry(pool *pgxpool.Pool, queries *db.Queries, audit *AuditLogger) *Registry {
	return &Registry{pool: pool, queries: queries, audit: audit}
}

func (r *Registry) List(ctx context.Context) ([]db.PermissionDefinition, error) {
	defs, err := r.queries.ListPermissionDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing permission definitions: %w", err)
	}
	return defs, nil
}

func (r *Registry) Get(ctx context.Context, slug string) (db.PermissionDefinition, error) {
	def, err := r.queries.GetPermissionDefinition(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.PermissionDefinition{}, notFound("permission " + slug)
		}
		return db.PermissionDefinition{}, fmt.Errorf("loading permission definition: %w", err)
	}
	return def, nil
}

// SetEnabled toggles a slug platform-wide. Disabling blocks new grants but
// leaves existing grant rows untouched.
func (r *Registry) SetEnabled(ctx context.Context, slug string, enabled bool, actor Actor, reason string) (db.PermissionDefinition, error) {
	if err := validateReason(reason); err != nil {
		return db.PermissionDefinition{}, err
	}

	def, err := r.queries.SetPermissionEnabled(ctx, db.SetPermissionEnabledParams{
		Slug:      slug,
		IsEnabled: enabled,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.PermissionDefinition{}, notFound("permission " + slug)
		}
		return db.PermissionDefinition{}, fmt.Errorf("updating permission definition: %w", err)
	}

	if err := r.audit.Record(ctx, AuditEvent{
		Actor:          actor,
		EventType:      EventToggleEnabled,
		PermissionSlug: slug,
		Reason:         reason,
		Metadata: AuditMetadata{
			Extra: map[string]any{"enabled": enabled},
		},
	}); err != nil {
		return db.PermissionDefinition{}, err
	}
	return def, nil
}

// ToggleExclusive flips a slug between exclusive and shareable.
//
// Making a slug exclusive checks every client's holder count first. With
// conflicts and force=false the toggle is refused with a ToggleConflictError
// listing affected clients. With force=true only the definition changes, so
// existing multi-holder grants stay visible as anomalies until an admin runs
// duplicate resolution; new grants already follow the exclusive path.
//
// When the toggle is conflict-free, or flips back to shareable, granted rows
// are restamped in the same transaction so the partial unique index guards
// every current holder.
func (r *Registry) ToggleExclusive(ctx context.Context, slug string, exclusive, force bool, actor Actor, reason string) (db.PermissionDefinition, error) {
	if err := validateReason(reason); err != nil {
		return db.PermissionDefinition{}, err
	}
	if _, err := r.Get(ctx, slug); err != nil {
		return db.PermissionDefinition{}, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return db.PermissionDefinition{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := r.queries.WithTx(tx)

	var conflicts []db.ListExclusiveConflictsRow
	if exclusive {
		conflicts, err = qtx.ListExclusiveConflicts(ctx, slug)
		if err != nil {
			return db.PermissionDefinition{}, fmt.Errorf("listing exclusivity conflicts: %w", err)
		}
		if len(conflicts) > 0 && !force {
			affected := make([]uuid.UUID, 0, len(conflicts))
			for _, c := range conflicts {
				affected = append(affected, c.ClientID)
			}
			return db.PermissionDefinition{}, &ToggleConflictError{
				Slug:            slug,
				ConflictCount:   len(conflicts),
				AffectedClients: affected,
			}
		}
	}

	def, err := qtx.SetPermissionExclusive(ctx, db.SetPermissionExclusiveParams{
		Slug:        slug,
		IsExclusive: exclusive,
	})
	if err != nil {
		return db.PermissionDefinition{}, fmt.Errorf("updating permission definition: %w", err)
	}

	// Restamping to exclusive would trip the partial unique index while a
	// client still holds the slug twice, so the forced path leaves grant
	// rows alone.
	if !exclusive || len(conflicts) == 0 {
		if err := qtx.RestampGrantExclusivity(ctx, db.RestampGrantExclusivityParams{
			PermissionSlug: slug,
			IsExclusive:    exclusive,
		}); err != nil {
			return db.PermissionDefinition{}, fmt.Errorf("restamping grants: %w", err)
		}
	}

	conflictCount := len(conflicts)
	if err := r.audit.RecordTx(ctx, qtx, AuditEvent{
		Actor:          actor,
		EventType:      EventToggleExclusivity,
		PermissionSlug: slug,
		Reason:         reason,
		Metadata: AuditMetadata{
			Exclusive:     &exclusive,
			Force:         &force,
			ConflictCount: &conflictCount,
		},
	}); err != nil {
		return db.PermissionDefinition{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return db.PermissionDefinition{}, fmt.Errorf("failed to commit exclusivity toggle: %w", err)
	}

	if conflictCount > 0 {
		logging.Warn("exclusivity toggled with outstanding multi-holder conflicts",
			"slug", slug, "conflict_count", conflictCount)
	}
	return def, nil
}
