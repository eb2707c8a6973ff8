package permissions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peakform/coach-backend/generated/db"
	"github.com/peakform/coach-backend/internal/logging"
)

// RequestService runs the ask-then-approve workflow: professionals request
// capabilities on an existing relationship, clients approve or deny, and
// invitation acceptance bootstraps a relationship with its initial grants.
type RequestService struct {
	pool    *pgxpool.Pool
	queries *db.Queries
	grants  *GrantService
	audit   *AuditLogger
	hooks   Hooks
	ttl     time.Duration
}

func NewRequestService(pool *pgxpool.Pool, queries *db.Queries, grants *GrantService, audit *AuditLogger, hooks Hooks, ttl time.Duration) *RequestService {
	return &RequestService{
		pool:    pool,
		queries: queries,
		grants:  grants,
		audit:   audit,
		hooks:   hooks,
		ttl:     ttl,
	}
}

// CreateRequest opens a pending request for slug on the professional's own
// relationship. Duplicate pending requests and already-granted slugs are
// refused before any write.
func (s *RequestService) CreateRequest(ctx context.Context, relationshipID uuid.UUID, slug, message string, professionalID uuid.UUID) (db.PermissionRequest, error) {
	rel, def, err := s.grants.checkGrantPreconditions(ctx, s.queries, relationshipID, slug)
	if err != nil {
		return db.PermissionRequest{}, err
	}
	if rel.ProfessionalID != professionalID {
		return db.PermissionRequest{}, authorizationf("only the relationship's professional can request %s", def.Slug)
	}

	if _, err := s.queries.GetActiveGrant(ctx, db.GetActiveGrantParams{
		RelationshipID: relationshipID,
		PermissionSlug: slug,
	}); err == nil {
		return db.PermissionRequest{}, &ConflictError{Msg: fmt.Sprintf("permission %s is already granted", slug)}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return db.PermissionRequest{}, fmt.Errorf("checking existing grant: %w", err)
	}

	if _, err := s.queries.GetPendingRequest(ctx, db.GetPendingRequestParams{
		RelationshipID: relationshipID,
		PermissionSlug: slug,
	}); err == nil {
		return db.PermissionRequest{}, &ConflictError{Msg: fmt.Sprintf("a request for %s is already pending", slug)}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return db.PermissionRequest{}, fmt.Errorf("checking pending request: %w", err)
	}

	request, err := s.queries.CreatePermissionRequest(ctx, db.CreatePermissionRequestParams{
		RelationshipID: relationshipID,
		PermissionSlug: slug,
		RequestedBy:    professionalID,
		Message:        message,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return db.PermissionRequest{}, &ConflictError{Msg: fmt.Sprintf("a request for %s is already pending", slug)}
		}
		return db.PermissionRequest{}, fmt.Errorf("creating permission request: %w", err)
	}
	return request, nil
}

// Respond approves or denies a pending request. Only the relationship's
// client may respond. Responding to a request already in the same terminal
// state is a no-op returning the current row; any other terminal state is
// a conflict.
//
// Approval grants first and marks the request only on success, so a failed
// grant leaves the request pending and retryable.
func (s *RequestService) Respond(ctx context.Context, requestID uuid.UUID, approve bool, clientID uuid.UUID) (db.PermissionRequest, *GrantResult, error) {
	request, err := s.queries.GetPermissionRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.PermissionRequest{}, nil, notFound("permission request")
		}
		return db.PermissionRequest{}, nil, fmt.Errorf("loading permission request: %w", err)
	}

	rel, err := s.queries.GetRelationshipByID(ctx, request.RelationshipID)
	if err != nil {
		return db.PermissionRequest{}, nil, fmt.Errorf("loading relationship: %w", err)
	}
	if rel.ClientID != clientID {
		return db.PermissionRequest{}, nil, authorizationf("only the relationship's client can respond to this request")
	}

	target := RequestStatusDenied
	if approve {
		target = RequestStatusApproved
	}

	if request.Status != RequestStatusPending {
		if request.Status == target {
			return request, nil, nil
		}
		return db.PermissionRequest{}, nil, &ConflictError{Msg: fmt.Sprintf("request is already %s", request.Status)}
	}

	var result *GrantResult
	if approve {
		result, err = s.grants.Grant(ctx, request.RelationshipID, request.PermissionSlug, GrantedByClient, ClientActor(clientID))
		if err != nil {
			return db.PermissionRequest{}, nil, err
		}
	}

	updated, err := s.queries.RespondPermissionRequest(ctx, db.RespondPermissionRequestParams{
		ID:     requestID,
		Status: target,
	})
	if err != nil {
		// Lost the race to another responder; the grant above is idempotent
		// so the winner's state stands.
		if errors.Is(err, pgx.ErrNoRows) {
			return db.PermissionRequest{}, nil, &ConflictError{Msg: "request was answered concurrently"}
		}
		return db.PermissionRequest{}, nil, fmt.Errorf("updating permission request: %w", err)
	}

	if !approve {
		if err := s.audit.Record(ctx, AuditEvent{
			Actor:          ClientActor(clientID),
			EventType:      EventGrantRefused,
			PermissionSlug: request.PermissionSlug,
			ClientID:       &rel.ClientID,
			RelationshipID: &rel.ID,
		}); err != nil {
			return db.PermissionRequest{}, nil, err
		}
	}
	return updated, result, nil
}

// ListByRelationship returns every request on the relationship, newest first.
func (s *RequestService) ListByRelationship(ctx context.Context, relationshipID uuid.UUID) ([]db.PermissionRequest, error) {
	requests, err := s.queries.ListRequestsByRelationship(ctx, relationshipID)
	if err != nil {
		return nil, fmt.Errorf("listing permission requests: %w", err)
	}
	return requests, nil
}

// ExpireStale marks every pending request older than the configured TTL as
// expired. Run from the background worker; returns how many were expired.
func (s *RequestService) ExpireStale(ctx context.Context) (int, error) {
	cutoff := pgtype.Timestamptz{Time: time.Now().Add(-s.ttl), Valid: true}
	expired, err := s.queries.ExpireStaleRequests(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("expiring stale requests: %w", err)
	}
	for _, request := range expired {
		if err := s.audit.Record(ctx, AuditEvent{
			Actor:          SystemActor(),
			EventType:      EventRequestExpired,
			PermissionSlug: request.PermissionSlug,
			RelationshipID: &request.RelationshipID,
		}); err != nil {
			return len(expired), err
		}
	}
	if len(expired) > 0 {
		logging.Info("expired stale permission requests", "count", len(expired))
	}
	return len(expired), nil
}
