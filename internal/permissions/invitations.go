package permissions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/peakform/coach-backend/generated/db"
)

// invitationTTL bounds how long an invitation token stays redeemable.
const invitationTTL = 30 * 24 * time.Hour

// CreateInvitation issues a tokenised invitation from a professional to a
// client email, carrying the slugs to grant on acceptance. Every slug must
// exist and be enabled at issue time.
func (s *RequestService) CreateInvitation(ctx context.Context, professionalID uuid.UUID, clientEmail string, slugs []string) (db.Invitation, error) {
	clientEmail = strings.ToLower(strings.TrimSpace(clientEmail))
	if clientEmail == "" {
		return db.Invitation{}, validationf("client email is required")
	}
	if len(slugs) == 0 {
		return db.Invitation{}, validationf("an invitation needs at least one permission")
	}
	seen := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		if seen[slug] {
			return db.Invitation{}, validationf("duplicate permission %s in invitation", slug)
		}
		seen[slug] = true
		def, err := s.queries.GetPermissionDefinition(ctx, slug)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return db.Invitation{}, notFound("permission " + slug)
			}
			return db.Invitation{}, fmt.Errorf("loading permission definition: %w", err)
		}
		if !def.IsEnabled {
			return db.Invitation{}, validationf("permission %s is disabled platform-wide", slug)
		}
	}

	token, err := newInvitationToken()
	if err != nil {
		return db.Invitation{}, err
	}

	invitation, err := s.queries.CreateInvitation(ctx, db.CreateInvitationParams{
		Token:           token,
		ProfessionalID:  professionalID,
		ClientEmail:     clientEmail,
		PermissionSlugs: slugs,
	})
	if err != nil {
		return db.Invitation{}, fmt.Errorf("creating invitation: %w", err)
	}
	return invitation, nil
}

func newInvitationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating invitation token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// InvitationSummary reports the outcome of a finalized invitation.
type InvitationSummary struct {
	RelationshipID uuid.UUID
	Approved       []string
	Rejected       []string
	Transfers      map[string]uuid.UUID // slug -> relationship the slug moved from
}

// FinalizeInvitation redeems an invitation token as the invited client.
// One transaction accepts the invitation, finds or creates the relationship,
// and grants every accepted slug; a failure anywhere rolls the whole thing
// back so the token stays redeemable.
//
// accepted selects which of the invitation's slugs the client takes; slugs
// left out, plus any that fail their definition checks, are recorded as
// refusals rather than failing the acceptance.
func (s *RequestService) FinalizeInvitation(ctx context.Context, token string, client db.User, accepted []string) (*InvitationSummary, error) {
	invitation, err := s.queries.GetInvitationByToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("invitation")
		}
		return nil, fmt.Errorf("loading invitation: %w", err)
	}
	if invitation.Status != InvitationPending {
		return nil, &ConflictError{Msg: fmt.Sprintf("invitation is already %s", invitation.Status)}
	}
	if invitation.CreatedAt.Valid && time.Since(invitation.CreatedAt.Time) > invitationTTL {
		return nil, &ConflictError{Msg: "invitation has expired"}
	}
	if !strings.EqualFold(invitation.ClientEmail, client.Email) {
		return nil, authorizationf("invitation was issued to a different email address")
	}

	offered := make(map[string]bool, len(invitation.PermissionSlugs))
	for _, slug := range invitation.PermissionSlugs {
		offered[slug] = true
	}
	acceptedSet := make(map[string]bool, len(accepted))
	for _, slug := range accepted {
		if !offered[slug] {
			return nil, validationf("permission %s was not offered by this invitation", slug)
		}
		acceptedSet[slug] = true
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := s.queries.WithTx(tx)

	if _, err := qtx.AcceptInvitation(ctx, invitation.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ConflictError{Msg: "invitation was redeemed concurrently"}
		}
		return nil, fmt.Errorf("accepting invitation: %w", err)
	}

	rel, err := s.findOrCreateRelationship(ctx, qtx, client.ID, invitation.ProfessionalID)
	if err != nil {
		return nil, err
	}

	summary := &InvitationSummary{
		RelationshipID: rel.ID,
		Transfers:      make(map[string]uuid.UUID),
	}
	var events []GrantEvent

	for _, slug := range invitation.PermissionSlugs {
		refusal := ""
		if !acceptedSet[slug] {
			refusal = "declined by client"
		} else {
			def, err := qtx.GetPermissionDefinition(ctx, slug)
			if err != nil {
				return nil, fmt.Errorf("loading permission definition: %w", err)
			}
			switch {
			case !def.IsEnabled:
				refusal = "permission disabled platform-wide"
			case def.RequiresVerification:
				professional, err := qtx.GetUserByID(ctx, rel.ProfessionalID)
				if err != nil {
					return nil, fmt.Errorf("loading professional: %w", err)
				}
				if !professional.IsVerified {
					refusal = "professional is not platform-verified"
				}
			}
			if refusal == "" {
				result, err := s.grants.grantInTx(ctx, qtx, rel, def, GrantedByClient, ClientActor(client.ID))
				if err != nil {
					return nil, err
				}
				summary.Approved = append(summary.Approved, slug)
				if !result.AlreadyGranted {
					event := GrantEvent{
						Type:           EventGrant,
						ClientID:       rel.ClientID,
						RelationshipID: rel.ID,
						PermissionSlug: slug,
					}
					if result.TransferredFrom != nil {
						event.Type = EventTransfer
						event.TransferredFrom = result.TransferredFrom
						summary.Transfers[slug] = *result.TransferredFrom
					}
					events = append(events, event)
				}
				continue
			}
		}

		summary.Rejected = append(summary.Rejected, slug)
		if err := s.audit.RecordTx(ctx, qtx, AuditEvent{
			Actor:          ClientActor(client.ID),
			EventType:      EventGrantRefused,
			PermissionSlug: slug,
			ClientID:       &rel.ClientID,
			RelationshipID: &rel.ID,
			Reason:         refusal,
		}); err != nil {
			return nil, err
		}
	}

	if err := s.audit.RecordTx(ctx, qtx, AuditEvent{
		Actor:          ClientActor(client.ID),
		EventType:      EventInvitationAccepted,
		ClientID:       &rel.ClientID,
		RelationshipID: &rel.ID,
		Metadata: AuditMetadata{
			ApprovedSlugs: summary.Approved,
			RejectedSlugs: summary.Rejected,
		},
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Msg: "concurrent grant for the same client and slug", Retryable: true}
		}
		return nil, fmt.Errorf("failed to commit invitation acceptance: %w", err)
	}

	if len(summary.Approved) > 0 {
		s.hooks.invalidate(ctx, rel.ClientID)
	}
	for _, event := range events {
		s.hooks.publish(ctx, event)
	}
	return summary, nil
}

// findOrCreateRelationship resolves the (client, professional) pair inside
// the invitation transaction, reactivating an ended relationship instead of
// violating the pair uniqueness constraint.
func (s *RequestService) findOrCreateRelationship(ctx context.Context, qtx *db.Queries, clientID, professionalID uuid.UUID) (db.Relationship, error) {
	rel, err := qtx.GetRelationshipByPair(ctx, db.GetRelationshipByPairParams{
		ClientID:       clientID,
		ProfessionalID: professionalID,
	})
	if err == nil {
		if rel.Status == RelationshipActive {
			return rel, nil
		}
		rel, err = qtx.ReactivateRelationship(ctx, rel.ID)
		if err != nil {
			return db.Relationship{}, fmt.Errorf("reactivating relationship: %w", err)
		}
		return rel, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return db.Relationship{}, fmt.Errorf("loading relationship: %w", err)
	}

	rel, err = qtx.CreateRelationship(ctx, db.CreateRelationshipParams{
		ClientID:       clientID,
		ProfessionalID: professionalID,
	})
	if err != nil {
		return db.Relationship{}, fmt.Errorf("creating relationship: %w", err)
	}
	return rel, nil
}
