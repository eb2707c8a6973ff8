package api

import (
	"net/http"

	"github.com/peakform/coach-backend/generated/db"
)

type PermissionDefinitionResponse struct {
	Slug                 string `json:"slug"`
	DisplayName          string `json:"display_name"`
	Category             string `json:"category"`
	IsExclusive          bool   `json:"is_exclusive"`
	IsEnabled            bool   `json:"is_enabled"`
	RequiresVerification bool   `json:"requires_verification"`
}

func toDefinitionResponse(def db.PermissionDefinition) PermissionDefinitionResponse {
	return PermissionDefinitionResponse{
		Slug:                 def.Slug,
		DisplayName:          def.DisplayName,
		Category:             def.Category,
		IsExclusive:          def.IsExclusive,
		IsEnabled:            def.IsEnabled,
		RequiresVerification: def.RequiresVerification,
	}
}

func (s *Server) ListPermissionDefinitions(w http.ResponseWriter, r *http.Request) {
	defs, err := s.registry.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response := make([]PermissionDefinitionResponse, 0, len(defs))
	for _, def := range defs {
		response = append(response, toDefinitionResponse(def))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": response})
}
