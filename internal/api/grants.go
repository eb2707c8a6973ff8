package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/peakform/coach-backend/generated/db"
	"github.com/peakform/coach-backend/internal/auth"
	"github.com/peakform/coach-backend/internal/permissions"
)

type RelationshipResponse struct {
	ID             uuid.UUID  `json:"id"`
	ClientID       uuid.UUID  `json:"client_id"`
	ProfessionalID uuid.UUID  `json:"professional_id"`
	Status         string     `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
}

func toRelationshipResponse(rel db.Relationship) RelationshipResponse {
	resp := RelationshipResponse{
		ID:             rel.ID,
		ClientID:       rel.ClientID,
		ProfessionalID: rel.ProfessionalID,
		Status:         rel.Status,
		StartedAt:      rel.StartedAt.Time,
	}
	if rel.EndedAt.Valid {
		t := rel.EndedAt.Time
		resp.EndedAt = &t
	}
	return resp
}

type GrantResponse struct {
	ID              uuid.UUID  `json:"id"`
	RelationshipID  uuid.UUID  `json:"relationship_id"`
	PermissionSlug  string     `json:"permission_slug"`
	IsExclusive     bool       `json:"is_exclusive"`
	Status          string     `json:"status"`
	GrantedBy       string     `json:"granted_by"`
	GrantedAt       time.Time  `json:"granted_at"`
	RevokedAt       *time.Time `json:"revoked_at,omitempty"`
	TransferredFrom *uuid.UUID `json:"transferred_from,omitempty"`
}

func toGrantResponse(grant db.ClientPermission) GrantResponse {
	resp := GrantResponse{
		ID:             grant.ID,
		RelationshipID: grant.RelationshipID,
		PermissionSlug: grant.PermissionSlug,
		IsExclusive:    grant.IsExclusive,
		Status:         grant.Status,
		GrantedBy:      grant.GrantedBy,
		GrantedAt:      grant.GrantedAt.Time,
	}
	if grant.RevokedAt.Valid {
		t := grant.RevokedAt.Time
		resp.RevokedAt = &t
	}
	return resp
}

// pathUUID parses a UUID URL parameter, writing a 400 on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, ValidationErr("invalid "+name, nil))
		return uuid.Nil, false
	}
	return id, true
}

// loadRelationshipForUser fetches the relationship and checks the caller is
// one of its two parties (or an admin).
func (s *Server) loadRelationshipForUser(w http.ResponseWriter, r *http.Request, relationshipID uuid.UUID) (db.Relationship, *auth.AuthenticatedUser, bool) {
	user, ok := auth.GetAuthenticatedUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, Unauthorized("Authentication required"))
		return db.Relationship{}, nil, false
	}

	rel, err := s.db.Queries().GetRelationshipByID(r.Context(), relationshipID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, NotFound("relationship"))
		} else {
			writeServiceError(w, err)
		}
		return db.Relationship{}, nil, false
	}

	if rel.ClientID != user.ID && rel.ProfessionalID != user.ID && !user.IsAdmin() {
		writeError(w, http.StatusForbidden, PermissionDenied("You are not a party to this relationship"))
		return db.Relationship{}, nil, false
	}
	return rel, user, true
}

func (s *Server) ListMyRelationships(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetAuthenticatedUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, Unauthorized("Authentication required"))
		return
	}

	var (
		rels []db.Relationship
		err  error
	)
	if user.Role == auth.RoleProfessional {
		rels, err = s.db.Queries().ListRelationshipsByProfessional(r.Context(), user.ID)
	} else {
		rels, err = s.db.Queries().ListRelationshipsByClient(r.Context(), user.ID)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := make([]RelationshipResponse, 0, len(rels))
	for _, rel := range rels {
		response = append(response, toRelationshipResponse(rel))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": response})
}

func (s *Server) ListGrants(w http.ResponseWriter, r *http.Request) {
	relationshipID, ok := pathUUID(w, r, "relationshipID")
	if !ok {
		return
	}
	if _, _, ok := s.loadRelationshipForUser(w, r, relationshipID); !ok {
		return
	}

	grants, err := s.db.Queries().ListGrantsByRelationship(r.Context(), relationshipID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := make([]GrantResponse, 0, len(grants))
	for _, grant := range grants {
		response = append(response, toGrantResponse(grant))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": response})
}

type CreateGrantRequest struct {
	PermissionSlug string `json:"permission_slug"`
}

// CreateGrant is the client's direct grant path. The professional side goes
// through requests instead.
func (s *Server) CreateGrant(w http.ResponseWriter, r *http.Request) {
	relationshipID, ok := pathUUID(w, r, "relationshipID")
	if !ok {
		return
	}
	rel, user, ok := s.loadRelationshipForUser(w, r, relationshipID)
	if !ok {
		return
	}
	if rel.ClientID != user.ID {
		writeError(w, http.StatusForbidden, PermissionDenied("Only the client can grant permissions"))
		return
	}

	var body CreateGrantRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.PermissionSlug == "" {
		writeError(w, http.StatusBadRequest, ValidationErr("permission_slug is required", nil))
		return
	}

	result, err := s.grants.Grant(r.Context(), relationshipID, body.PermissionSlug,
		permissions.GrantedByClient, permissions.ClientActor(user.ID))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := toGrantResponse(result.Grant)
	response.TransferredFrom = result.TransferredFrom
	status := http.StatusCreated
	if result.AlreadyGranted {
		status = http.StatusOK
	}
	writeJSON(w, status, response)
}

// RevokeGrant removes a grant. Clients revoke what they granted; the
// professional may relinquish their own access.
func (s *Server) RevokeGrant(w http.ResponseWriter, r *http.Request) {
	relationshipID, ok := pathUUID(w, r, "relationshipID")
	if !ok {
		return
	}
	rel, user, ok := s.loadRelationshipForUser(w, r, relationshipID)
	if !ok {
		return
	}

	slug := chi.URLParam(r, "slug")
	if slug == "" {
		writeError(w, http.StatusBadRequest, ValidationErr("permission slug is required", nil))
		return
	}

	actor := permissions.ClientActor(user.ID)
	if user.ID == rel.ProfessionalID {
		actor = permissions.ProfessionalActor(user.ID)
	}

	if err := s.grants.Revoke(r.Context(), relationshipID, slug, actor); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
