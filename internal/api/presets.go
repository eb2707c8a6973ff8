package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/peakform/coach-backend/internal/auth"
	"github.com/peakform/coach-backend/internal/permissions"
)

type PresetResponse struct {
	ID          uuid.UUID                 `json:"id"`
	Name        string                    `json:"name"`
	Description string                    `json:"description,omitempty"`
	IsSystem    bool                      `json:"is_system"`
	Items       []permissions.PresetEntry `json:"items"`
}

func toPresetResponse(preset permissions.PresetWithItems) PresetResponse {
	return PresetResponse{
		ID:          preset.Preset.ID,
		Name:        preset.Preset.Name,
		Description: preset.Preset.Description,
		IsSystem:    preset.Preset.IsSystem,
		Items:       preset.Entries,
	}
}

func actorFor(user *auth.AuthenticatedUser) permissions.Actor {
	switch user.Role {
	case auth.RoleAdmin:
		return permissions.AdminActor(user.ID)
	case auth.RoleProfessional:
		return permissions.ProfessionalActor(user.ID)
	default:
		return permissions.ClientActor(user.ID)
	}
}

func (s *Server) ListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.presets.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response := make([]PresetResponse, 0, len(presets))
	for _, preset := range presets {
		response = append(response, toPresetResponse(preset))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": response})
}

func (s *Server) GetPreset(w http.ResponseWriter, r *http.Request) {
	presetID, ok := pathUUID(w, r, "presetID")
	if !ok {
		return
	}
	preset, err := s.presets.Get(r.Context(), presetID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPresetResponse(preset))
}

type PresetItemBody struct {
	Slug    string `json:"slug"`
	Enabled *bool  `json:"enabled"` // defaults to true when omitted
}

type PresetBody struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Items       []PresetItemBody `json:"items"`
	Reason      string           `json:"reason"`
}

func (b PresetBody) entries() []permissions.PresetEntry {
	entries := make([]permissions.PresetEntry, 0, len(b.Items))
	for _, item := range b.Items {
		entries = append(entries, permissions.PresetEntry{
			Slug:    item.Slug,
			Enabled: item.Enabled == nil || *item.Enabled,
		})
	}
	return entries
}

func (s *Server) CreatePreset(w http.ResponseWriter, r *http.Request) {
	user, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	if user.Role != auth.RoleProfessional && !user.IsAdmin() {
		writeError(w, http.StatusForbidden, PermissionDenied("Only professionals can create presets"))
		return
	}

	var body PresetBody
	if !decodeBody(w, r, &body) {
		return
	}

	preset, err := s.presets.Create(r.Context(), body.Name, body.Description, body.entries(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPresetResponse(preset))
}

func (s *Server) UpdatePreset(w http.ResponseWriter, r *http.Request) {
	presetID, ok := pathUUID(w, r, "presetID")
	if !ok {
		return
	}
	user, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var body PresetBody
	if !decodeBody(w, r, &body) {
		return
	}

	preset, err := s.presets.Update(r.Context(), presetID, body.Name, body.Description,
		body.entries(), actorFor(user), body.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPresetResponse(preset))
}

func (s *Server) DeletePreset(w http.ResponseWriter, r *http.Request) {
	presetID, ok := pathUUID(w, r, "presetID")
	if !ok {
		return
	}
	user, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	reason := r.URL.Query().Get("reason")
	if err := s.presets.Delete(r.Context(), presetID, actorFor(user), reason); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type ApplyPresetBody struct {
	RelationshipID uuid.UUID `json:"relationship_id"`
}

// ApplyPreset applies the preset's entries on a relationship, granting the
// enabled slugs and revoking the disabled ones. Clients apply presets to
// their own relationships.
func (s *Server) ApplyPreset(w http.ResponseWriter, r *http.Request) {
	presetID, ok := pathUUID(w, r, "presetID")
	if !ok {
		return
	}

	var body ApplyPresetBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.RelationshipID == uuid.Nil {
		writeError(w, http.StatusBadRequest, ValidationErr("relationship_id is required", nil))
		return
	}

	rel, user, ok := s.loadRelationshipForUser(w, r, body.RelationshipID)
	if !ok {
		return
	}
	if rel.ClientID != user.ID && !user.IsAdmin() {
		writeError(w, http.StatusForbidden, PermissionDenied("Only the client can apply a preset"))
		return
	}

	outcomes, err := s.presets.Apply(r.Context(), presetID, body.RelationshipID, actorFor(user))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": outcomes})
}
