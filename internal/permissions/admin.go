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

// AdminService holds the support-desk overrides. Every operation demands an
// admin actor and a written reason; the reason lands in the audit ledger.
type AdminService struct {
	pool    *pgxpool.Pool
	queries *db.Queries
	grants  *GrantService
	presets *PresetService
	audit   *AuditLogger
	hooks   Hooks
}

func NewAdminService(pool *pgxpool.Pool, queries *db.Queries, grants *GrantService, presets *PresetService, audit *AuditLogger, hooks Hooks) *AdminService {
	return &AdminService{
		pool:    pool,
		queries: queries,
		grants:  grants,
		presets: presets,
		audit:   audit,
		hooks:   hooks,
	}
}

func (s *AdminService) requireAdmin(actor Actor, reason string) error {
	if actor.Type != ActorAdmin {
		return authorizationf("admin privileges required")
	}
	return validateReason(reason)
}

// ForceConnect creates (or reactivates) a relationship between a client and
// a professional without an invitation, optionally applying a preset to seed
// grants.
func (s *AdminService) ForceConnect(ctx context.Context, clientID, professionalID uuid.UUID, presetID *uuid.UUID, actor Actor, reason string) (db.Relationship, []ApplyOutcome, error) {
	if err := s.requireAdmin(actor, reason); err != nil {
		return db.Relationship{}, nil, err
	}

	client, err := s.queries.GetUserByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Relationship{}, nil, notFound("client")
		}
		return db.Relationship{}, nil, fmt.Errorf("loading client: %w", err)
	}
	professional, err := s.queries.GetUserByID(ctx, professionalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Relationship{}, nil, notFound("professional")
		}
		return db.Relationship{}, nil, fmt.Errorf("loading professional: %w", err)
	}
	if client.Role != RoleClient {
		return db.Relationship{}, nil, validationf("user %s is not a client", clientID)
	}
	if professional.Role != RoleProfessional {
		return db.Relationship{}, nil, validationf("user %s is not a professional", professionalID)
	}

	rel, err := s.findOrReviveRelationship(ctx, clientID, professionalID)
	if err != nil {
		return db.Relationship{}, nil, err
	}

	if err := s.audit.Record(ctx, AuditEvent{
		Actor:          actor,
		EventType:      EventForceConnect,
		ClientID:       &rel.ClientID,
		RelationshipID: &rel.ID,
		Reason:         reason,
		Metadata:       AuditMetadata{PresetID: presetID},
	}); err != nil {
		return db.Relationship{}, nil, err
	}

	var outcomes []ApplyOutcome
	if presetID != nil {
		outcomes, err = s.presets.Apply(ctx, *presetID, rel.ID, actor)
		if err != nil {
			return rel, outcomes, err
		}
	}
	return rel, outcomes, nil
}

func (s *AdminService) findOrReviveRelationship(ctx context.Context, clientID, professionalID uuid.UUID) (db.Relationship, error) {
	rel, err := s.queries.GetRelationshipByPair(ctx, db.GetRelationshipByPairParams{
		ClientID:       clientID,
		ProfessionalID: professionalID,
	})
	if err == nil {
		if rel.Status == RelationshipActive {
			return rel, nil
		}
		rel, err = s.queries.ReactivateRelationship(ctx, rel.ID)
		if err != nil {
			return db.Relationship{}, fmt.Errorf("reactivating relationship: %w", err)
		}
		return rel, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return db.Relationship{}, fmt.Errorf("loading relationship: %w", err)
	}
	rel, err = s.queries.CreateRelationship(ctx, db.CreateRelationshipParams{
		ClientID:       clientID,
		ProfessionalID: professionalID,
	})
	if err != nil {
		return db.Relationship{}, fmt.Errorf("creating relationship: %w", err)
	}
	return rel, nil
}

// ForceDisconnect ends a relationship and revokes everything it holds in one
// transaction. Each revoked slug gets its own revoke event so the ledger
// reads the same as individual revocations.
func (s *AdminService) ForceDisconnect(ctx context.Context, relationshipID uuid.UUID, actor Actor, reason string) (int, error) {
	if err := s.requireAdmin(actor, reason); err != nil {
		return 0, err
	}

	rel, err := s.queries.GetRelationshipByID(ctx, relationshipID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, notFound("relationship")
		}
		return 0, fmt.Errorf("loading relationship: %w", err)
	}
	if rel.Status != RelationshipActive {
		return 0, &ConflictError{Msg: "relationship is already ended"}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := s.queries.WithTx(tx)

	if _, err := qtx.EndRelationship(ctx, relationshipID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &ConflictError{Msg: "relationship was ended concurrently"}
		}
		return 0, fmt.Errorf("ending relationship: %w", err)
	}

	revokedSlugs, err := qtx.RevokeAllGrantsForRelationship(ctx, relationshipID)
	if err != nil {
		return 0, fmt.Errorf("revoking grants: %w", err)
	}

	for _, slug := range revokedSlugs {
		if err := s.audit.RecordTx(ctx, qtx, AuditEvent{
			Actor:          actor,
			EventType:      EventRevoke,
			PermissionSlug: slug,
			ClientID:       &rel.ClientID,
			RelationshipID: &rel.ID,
			Reason:         reason,
		}); err != nil {
			return 0, err
		}
	}

	revokedCount := len(revokedSlugs)
	if err := s.audit.RecordTx(ctx, qtx, AuditEvent{
		Actor:          actor,
		EventType:      EventForceDisconnect,
		ClientID:       &rel.ClientID,
		RelationshipID: &rel.ID,
		Reason:         reason,
		Metadata:       AuditMetadata{RevokedCount: &revokedCount},
	}); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit force disconnect: %w", err)
	}

	s.hooks.invalidate(ctx, rel.ClientID)
	for _, slug := range revokedSlugs {
		s.hooks.publish(ctx, GrantEvent{
			Type:           EventRevoke,
			ClientID:       rel.ClientID,
			RelationshipID: rel.ID,
			PermissionSlug: slug,
		})
	}
	logging.Info("force disconnected relationship",
		"relationship_id", relationshipID, "revoked", revokedCount)
	return revokedCount, nil
}

// DuplicateResolution reports the outcome of ResolveExclusiveDuplicates.
type DuplicateResolution struct {
	Resolved        int
	WinnerPreserved uuid.UUID
	RevokedFrom     []uuid.UUID
}

// ResolveExclusiveDuplicates is the only recovery path for a client holding
// an exclusive slug on more than one relationship. Every holder except keep
// is revoked in one transaction; keep must itself be a current holder.
func (s *AdminService) ResolveExclusiveDuplicates(ctx context.Context, clientID uuid.UUID, slug string, keep uuid.UUID, actor Actor, reason string) (*DuplicateResolution, error) {
	if err := s.requireAdmin(actor, reason); err != nil {
		return nil, err
	}

	def, err := s.queries.GetPermissionDefinition(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("permission " + slug)
		}
		return nil, fmt.Errorf("loading permission definition: %w", err)
	}
	if !def.IsExclusive {
		return nil, validationf("permission %s is not exclusive", slug)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := s.queries.WithTx(tx)

	if err := qtx.AcquireGrantLock(ctx, db.AcquireGrantLockParams{
		Column1: clientID.String(),
		Column2: slug,
	}); err != nil {
		return nil, fmt.Errorf("acquiring grant lock: %w", err)
	}

	holders, err := qtx.HoldersOf(ctx, db.HoldersOfParams{
		ClientID:       clientID,
		PermissionSlug: slug,
	})
	if err != nil {
		return nil, fmt.Errorf("listing holders: %w", err)
	}

	keepIsHolder := false
	for _, holder := range holders {
		if holder == keep {
			keepIsHolder = true
			break
		}
	}
	if !keepIsHolder {
		return nil, validationf("relationship %s does not hold %s for this client", keep, slug)
	}
	if len(holders) < 2 {
		return nil, &ConflictError{Msg: fmt.Sprintf("no duplicate holders of %s for this client", slug)}
	}

	resolution := &DuplicateResolution{WinnerPreserved: keep}
	for _, holder := range holders {
		if holder == keep {
			continue
		}
		revoked, err := qtx.RevokeGrant(ctx, db.RevokeGrantParams{
			RelationshipID: holder,
			PermissionSlug: slug,
		})
		if err != nil {
			return nil, fmt.Errorf("revoking duplicate grant: %w", err)
		}
		if revoked != 1 {
			return nil, fmt.Errorf("expected to revoke 1 duplicate grant, revoked %d", revoked)
		}
		resolution.Resolved++
		resolution.RevokedFrom = append(resolution.RevokedFrom, holder)

		holderID := holder
		if err := s.audit.RecordTx(ctx, qtx, AuditEvent{
			Actor:          actor,
			EventType:      EventRevoke,
			PermissionSlug: slug,
			ClientID:       &clientID,
			RelationshipID: &holderID,
			Reason:         reason,
		}); err != nil {
			return nil, err
		}
	}

	if err := s.audit.RecordTx(ctx, qtx, AuditEvent{
		Actor:          actor,
		EventType:      EventDuplicatesResolved,
		PermissionSlug: slug,
		ClientID:       &clientID,
		RelationshipID: &keep,
		Reason:         reason,
		Metadata: AuditMetadata{
			KeptRelationship: &keep,
			RevokedCount:     &resolution.Resolved,
		},
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit duplicate resolution: %w", err)
	}

	s.hooks.invalidate(ctx, clientID)
	return resolution, nil
}
