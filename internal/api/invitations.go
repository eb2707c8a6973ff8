package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/peakform/coach-backend/internal/auth"
	"github.com/peakform/coach-backend/internal/logging"
)

type InvitationResponse struct {
	ID              uuid.UUID `json:"id"`
	Token           string    `json:"token"`
	ClientEmail     string    `json:"client_email"`
	PermissionSlugs []string  `json:"permission_slugs"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

type CreateInvitationBody struct {
	ClientEmail     string   `json:"client_email"`
	PermissionSlugs []string `json:"permission_slugs"`
}

func (s *Server) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	user, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	if user.Role != auth.RoleProfessional {
		writeError(w, http.StatusForbidden, PermissionDenied("Only professionals can invite clients"))
		return
	}

	var body CreateInvitationBody
	if !decodeBody(w, r, &body) {
		return
	}

	invitation, err := s.requests.CreateInvitation(r.Context(), user.ID, body.ClientEmail, body.PermissionSlugs)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logging.Info("invitation created", "professional_id", user.ID, "client_email", invitation.ClientEmail)
	writeJSON(w, http.StatusCreated, InvitationResponse{
		ID:              invitation.ID,
		Token:           invitation.Token,
		ClientEmail:     invitation.ClientEmail,
		PermissionSlugs: invitation.PermissionSlugs,
		Status:          invitation.Status,
		CreatedAt:       invitation.CreatedAt.Time,
	})
}

type AcceptInvitationBody struct {
	Token         string   `json:"token"`
	AcceptedSlugs []string `json:"accepted_slugs"`
}

type AcceptInvitationResponse struct {
	RelationshipID uuid.UUID            `json:"relationship_id"`
	Approved       []string             `json:"approved"`
	Rejected       []string             `json:"rejected"`
	Transfers      map[string]uuid.UUID `json:"transfers,omitempty"`
}

func (s *Server) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	user, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var body AcceptInvitationBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Token == "" {
		writeError(w, http.StatusBadRequest, ValidationErr("token is required", nil))
		return
	}

	clientRow, err := s.db.Queries().GetUserByID(r.Context(), user.ID)
	if err != nil {
		if err == pgx.ErrNoRows {
			writeError(w, http.StatusNotFound, NotFound("user"))
			return
		}
		writeServiceError(w, err)
		return
	}

	summary, err := s.requests.FinalizeInvitation(r.Context(), body.Token, clientRow, body.AcceptedSlugs)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := AcceptInvitationResponse{
		RelationshipID: summary.RelationshipID,
		Approved:       summary.Approved,
		Rejected:       summary.Rejected,
	}
	if len(summary.Transfers) > 0 {
		response.Transfers = summary.Transfers
	}
	writeJSON(w, http.StatusOK, response)
}
