package permissions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peakform/coach-backend/generated/db"
	"github.com/peakform/coach-backend/internal/logging"
)

// retryBackoff is the pause before the single retry of a grant that lost
// the unique-constraint race to a concurrent writer.
const retryBackoff = 50 * time.Millisecond

// GrantService is the source of truth for which relationship holds which
// capability. Exclusive slugs go through the transfer resolution in
// exclusivity.go; everything shares one transactional grant primitive.
type GrantService struct {
	pool    *pgxpool.Pool
	queries *db.Queries
	audit   *AuditLogger
	hooks   Hooks
}

func NewGrantService(pool *pgxpool.Pool, queries *db.Queries, audit *AuditLogger, hooks Hooks) *GrantService {
	return &GrantService{
		pool:    pool,
		queries: queries,
		audit:   audit,
		hooks:   hooks,
	}
}

// GrantResult reports a successful grant. TransferredFrom is set when an
// exclusive slug moved from another relationship in the same transaction.
type GrantResult struct {
	Grant           db.ClientPermission
	TransferredFrom *uuid.UUID
	AlreadyGranted  bool
}

// Grant gives relationshipID the capability named by slug. Preconditions:
// the relationship is active, the slug is enabled, and for
// requires_verification slugs the professional is platform-verified.
// A grant that loses the storage race to a concurrent writer is retried
// exactly once after a short backoff.
func (s *GrantService) Grant(ctx context.Context, relationshipID uuid.UUID, slug, grantedBy string, actor Actor) (*GrantResult, error) {
	result, err := s.grantOnce(ctx, relationshipID, slug, grantedBy, actor)

	var conflict *ConflictError
	if errors.As(err, &conflict) && conflict.Retryable {
		logging.Warn("grant lost unique-constraint race, retrying once",
			"relationship_id", relationshipID, "slug", slug)
		time.Sleep(retryBackoff)
		result, err = s.grantOnce(ctx, relationshipID, slug, grantedBy, actor)
	}
	return result, err
}

func (s *GrantService) grantOnce(ctx context.Context, relationshipID uuid.UUID, slug, grantedBy string, actor Actor) (*GrantResult, error) {
	rel, def, err := s.checkGrantPreconditions(ctx, s.queries, relationshipID, slug)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := s.queries.WithTx(tx)

	result, err := s.grantInTx(ctx, qtx, rel, def, grantedBy, actor)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Msg: "concurrent grant for the same client and slug", Retryable: true}
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Msg: "concurrent grant for the same client and slug", Retryable: true}
		}
		return nil, fmt.Errorf("failed to commit grant: %w", err)
	}

	s.afterGrantCommit(ctx, rel, slug, result)
	return result, nil
}

// checkGrantPreconditions validates the relationship and slug before any
// write. Returns the loaded rows so callers do not re-query.
func (s *GrantService) checkGrantPreconditions(ctx context.Context, q *db.Queries, relationshipID uuid.UUID, slug string) (db.Relationship, db.PermissionDefinition, error) {
	rel, err := q.GetRelationshipByID(ctx, relationshipID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Relationship{}, db.PermissionDefinition{}, notFound("relationship")
		}
		return db.Relationship{}, db.PermissionDefinition{}, fmt.Errorf("loading relationship: %w", err)
	}
	if rel.Status != RelationshipActive {
		return rel, db.PermissionDefinition{}, validationf("relationship %s is not active", relationshipID)
	}

	def, err := q.GetPermissionDefinition(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rel, db.PermissionDefinition{}, notFound("permission " + slug)
		}
		return rel, db.PermissionDefinition{}, fmt.Errorf("loading permission definition: %w", err)
	}
	if !def.IsEnabled {
		return rel, def, validationf("permission %s is disabled platform-wide", slug)
	}

	if def.RequiresVerification {
		professional, err := q.GetUserByID(ctx, rel.ProfessionalID)
		if err != nil {
			return rel, def, fmt.Errorf("loading professional: %w", err)
		}
		if !professional.IsVerified {
			return rel, def, authorizationf("permission %s requires a platform-verified professional", slug)
		}
	}

	return rel, def, nil
}

func (s *GrantService) afterGrantCommit(ctx context.Context, rel db.Relationship, slug string, result *GrantResult) {
	if result.AlreadyGranted {
		return
	}
	s.hooks.invalidate(ctx, rel.ClientID)
	eventType := EventGrant
	if result.TransferredFrom != nil {
		eventType = EventTransfer
	}
	s.hooks.publish(ctx, GrantEvent{
		Type:            eventType,
		ClientID:        rel.ClientID,
		RelationshipID:  rel.ID,
		PermissionSlug:  slug,
		TransferredFrom: result.TransferredFrom,
	})
}

// Revoke removes slug from relationshipID. Revoking an already-revoked or
// never-granted slug is a no-op, not an error. The status flip and its
// audit event commit or roll back together.
func (s *GrantService) Revoke(ctx context.Context, relationshipID uuid.UUID, slug string, actor Actor) error {
	rel, err := s.queries.GetRelationshipByID(ctx, relationshipID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound("relationship")
		}
		return fmt.Errorf("loading relationship: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := s.queries.WithTx(tx)

	revoked, err := qtx.RevokeGrant(ctx, db.RevokeGrantParams{
		RelationshipID: relationshipID,
		PermissionSlug: slug,
	})
	if err != nil {
		return fmt.Errorf("revoking grant: %w", err)
	}
	if revoked == 0 {
		return nil
	}

	if err := s.audit.RecordTx(ctx, qtx, AuditEvent{
		Actor:          actor,
		EventType:      EventRevoke,
		PermissionSlug: slug,
		ClientID:       &rel.ClientID,
		RelationshipID: &rel.ID,
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit revoke: %w", err)
	}

	s.hooks.invalidate(ctx, rel.ClientID)
	s.hooks.publish(ctx, GrantEvent{
		Type:           EventRevoke,
		ClientID:       rel.ClientID,
		RelationshipID: rel.ID,
		PermissionSlug: slug,
	})
	return nil
}

// ListGranted returns the slugs currently granted on a relationship.
func (s *GrantService) ListGranted(ctx context.Context, relationshipID uuid.UUID) ([]string, error) {
	slugs, err := s.queries.ListGrantedSlugs(ctx, relationshipID)
	if err != nil {
		return nil, fmt.Errorf("listing granted slugs: %w", err)
	}
	return slugs, nil
}

// HoldersOf returns the relationships currently holding slug for a client,
// oldest grant first.
func (s *GrantService) HoldersOf(ctx context.Context, clientID uuid.UUID, slug string) ([]uuid.UUID, error) {
	holders, err := s.queries.HoldersOf(ctx, db.HoldersOfParams{
		ClientID:       clientID,
		PermissionSlug: slug,
	})
	if err != nil {
		return nil, fmt.Errorf("listing holders: %w", err)
	}
	return holders, nil
}
