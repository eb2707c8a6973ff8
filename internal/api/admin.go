package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/peakform/coach-backend/internal/permissions"
)

type ForceConnectBody struct {
	ClientID       uuid.UUID  `json:"client_id"`
	ProfessionalID uuid.UUID  `json:"professional_id"`
	PresetID       *uuid.UUID `json:"preset_id,omitempty"`
	Reason         string     `json:"reason"`
}

func (s *Server) ForceConnect(w http.ResponseWriter, r *http.Request) {
	user, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var body ForceConnectBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.ClientID == uuid.Nil || body.ProfessionalID == uuid.Nil {
		writeError(w, http.StatusBadRequest, ValidationErr("client_id and professional_id are required", nil))
		return
	}

	rel, outcomes, err := s.admin.ForceConnect(r.Context(), body.ClientID, body.ProfessionalID,
		body.PresetID, permissions.AdminActor(user.ID), body.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := map[string]any{"relationship": toRelationshipResponse(rel)}
	if outcomes != nil {
		response["preset_results"] = outcomes
	}
	writeJSON(w, http.StatusCreated, response)
}

type ReasonBody struct {
	Reason string `json:"reason"`
}

func (s *Server) ForceDisconnect(w http.ResponseWriter, r *http.Request) {
	relationshipID, ok := pathUUID(w, r, "relationshipID")
	if !ok {
		return
	}
	user, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var body ReasonBody
	if !decodeBody(w, r, &body) {
		return
	}

	revoked, err := s.admin.ForceDisconnect(r.Context(), relationshipID,
		permissions.AdminActor(user.ID), body.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"revoked_grants": revoked})
}

type SetEnabledBody struct {
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason"`
}

func (s *Server) SetPermissionEnabled(w http.ResponseWriter, r *http.Request) {
	user, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	slug := chi.URLParam(r, "slug")

	var body SetEnabledBody
	if !decodeBody(w, r, &body) {
		return
	}

	def, err := s.registry.SetEnabled(r.Context(), slug, body.Enabled,
		permissions.AdminActor(user.ID), body.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDefinitionResponse(def))
}

type ToggleExclusivityBody struct {
	Exclusive bool   `json:"exclusive"`
	Force     bool   `json:"force"`
	Reason    string `json:"reason"`
}

func (s *Server) TogglePermissionExclusivity(w http.ResponseWriter, r *http.Request) {
	user, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	slug := chi.URLParam(r, "slug")

	var body ToggleExclusivityBody
	if !decodeBody(w, r, &body) {
		return
	}

	def, err := s.registry.ToggleExclusive(r.Context(), slug, body.Exclusive, body.Force,
		permissions.AdminActor(user.ID), body.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDefinitionResponse(def))
}

type ResolveDuplicatesBody struct {
	ClientID           uuid.UUID `json:"client_id"`
	KeepRelationshipID uuid.UUID `json:"keep_relationship_id"`
	Reason             string    `json:"reason"`
}

func (s *Server) ResolveExclusiveDuplicates(w http.ResponseWriter, r *http.Request) {
	user, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	slug := chi.URLParam(r, "slug")

	var body ResolveDuplicatesBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.ClientID == uuid.Nil || body.KeepRelationshipID == uuid.Nil {
		writeError(w, http.StatusBadRequest, ValidationErr("client_id and keep_relationship_id are required", nil))
		return
	}

	resolution, err := s.admin.ResolveExclusiveDuplicates(r.Context(), body.ClientID, slug,
		body.KeepRelationshipID, permissions.AdminActor(user.ID), body.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"resolved":         resolution.Resolved,
		"winner_preserved": resolution.WinnerPreserved,
		"revoked_from":     resolution.RevokedFrom,
	})
}
