package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/peakform/coach-backend/generated/db"
)

type AuditEventResponse struct {
	ID             uuid.UUID       `json:"id"`
	ActorType      string          `json:"actor_type"`
	ActorID        *uuid.UUID      `json:"actor_id,omitempty"`
	EventType      string          `json:"event_type"`
	PermissionSlug string          `json:"permission_slug,omitempty"`
	ClientID       *uuid.UUID      `json:"client_id,omitempty"`
	RelationshipID *uuid.UUID      `json:"relationship_id,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toAuditEventResponse(event db.PermissionAuditLog) AuditEventResponse {
	resp := AuditEventResponse{
		ID:             event.ID,
		ActorType:      event.ActorType,
		ActorID:        event.ActorID,
		EventType:      event.EventType,
		ClientID:       event.ClientID,
		RelationshipID: event.RelationshipID,
		CreatedAt:      event.CreatedAt.Time,
	}
	if event.PermissionSlug.Valid {
		resp.PermissionSlug = event.PermissionSlug.String
	}
	if event.Reason.Valid {
		resp.Reason = event.Reason.String
	}
	if len(event.Metadata) > 0 {
		resp.Metadata = json.RawMessage(event.Metadata)
	}
	return resp
}

// ListAuditEvents is admin-only, filtered by client and event type.
func (s *Server) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	var clientID *uuid.UUID
	if v := r.URL.Query().Get("client_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, ValidationErr("invalid client_id", nil))
			return
		}
		clientID = &id
	}
	eventType := r.URL.Query().Get("event_type")
	limit, offset := parsePagination(r)

	events, total, err := s.audit.List(r.Context(), clientID, eventType, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := make([]AuditEventResponse, 0, len(events))
	for _, event := range events {
		response = append(response, toAuditEventResponse(event))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": response,
		"meta": PaginationMeta{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+limit < total,
		},
	})
}
