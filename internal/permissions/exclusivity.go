package permissions

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/peakform/coach-backend/generated/db"
)

// grantInTx performs the locked grant inside the caller's transaction. It is
// shared by Grant and by the invitation finalizer, which grants several slugs
// in one transaction. For exclusive slugs the (client, slug) advisory lock
// serializes writers, then the holder count decides the path:
//
//	0 holders  insert
//	1 holder   revoke the current holder, insert, record a transfer
//	2+ holders refuse with MultipleHoldersError, nothing is healed
//
// Granting a slug the relationship already holds is a no-op success.
func (s *GrantService) grantInTx(ctx context.Context, qtx *db.Queries, rel db.Relationship, def db.PermissionDefinition, grantedBy string, actor Actor) (*GrantResult, error) {
	if err := qtx.AcquireGrantLock(ctx, db.AcquireGrantLockParams{
		Column1: rel.ClientID.String(),
		Column2: def.Slug,
	}); err != nil {
		return nil, fmt.Errorf("acquiring grant lock: %w", err)
	}

	existing, err := qtx.GetActiveGrant(ctx, db.GetActiveGrantParams{
		RelationshipID: rel.ID,
		PermissionSlug: def.Slug,
	})
	if err == nil {
		return &GrantResult{Grant: existing, AlreadyGranted: true}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("checking existing grant: %w", err)
	}

	var transferredFrom *db.Relationship
	if def.IsExclusive {
		holders, err := qtx.HoldersOf(ctx, db.HoldersOfParams{
			ClientID:       rel.ClientID,
			PermissionSlug: def.Slug,
		})
		if err != nil {
			return nil, fmt.Errorf("listing current holders: %w", err)
		}
		switch len(holders) {
		case 0:
		case 1:
			loser, err := qtx.GetRelationshipByID(ctx, holders[0])
			if err != nil {
				return nil, fmt.Errorf("loading losing relationship: %w", err)
			}
			revoked, err := qtx.RevokeGrant(ctx, db.RevokeGrantParams{
				RelationshipID: loser.ID,
				PermissionSlug: def.Slug,
			})
			if err != nil {
				return nil, fmt.Errorf("revoking transferred grant: %w", err)
			}
			if revoked != 1 {
				return nil, fmt.Errorf("expected to revoke 1 grant during transfer, revoked %d", revoked)
			}
			transferredFrom = &loser
		default:
			return nil, &MultipleHoldersError{ClientID: rel.ClientID, Slug: def.Slug, Holders: holders}
		}
	}

	grant, err := qtx.InsertGrant(ctx, db.InsertGrantParams{
		RelationshipID: rel.ID,
		ClientID:       rel.ClientID,
		PermissionSlug: def.Slug,
		IsExclusive:    def.IsExclusive,
		GrantedBy:      grantedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("inserting grant: %w", err)
	}

	result := &GrantResult{Grant: grant}

	event := AuditEvent{
		Actor:          actor,
		EventType:      EventGrant,
		PermissionSlug: def.Slug,
		ClientID:       &rel.ClientID,
		RelationshipID: &rel.ID,
	}
	if transferredFrom != nil {
		result.TransferredFrom = &transferredFrom.ID
		event.EventType = EventTransfer
		event.Metadata = AuditMetadata{
			TransferredFrom: &transferredFrom.ID,
			TransferredTo:   &rel.ID,
		}
	}
	if err := s.audit.RecordTx(ctx, qtx, event); err != nil {
		return nil, err
	}

	return result, nil
}
