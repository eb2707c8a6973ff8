package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/peakform/coach-backend/generated/db"
)

type RequestResponse struct {
	ID             uuid.UUID  `json:"id"`
	RelationshipID uuid.UUID  `json:"relationship_id"`
	PermissionSlug string     `json:"permission_slug"`
	RequestedBy    uuid.UUID  `json:"requested_by"`
	Message        string     `json:"message,omitempty"`
	Status         string     `json:"status"`
	RequestedAt    time.Time  `json:"requested_at"`
	RespondedAt    *time.Time `json:"responded_at,omitempty"`
}

func toRequestResponse(request db.PermissionRequest) RequestResponse {
	resp := RequestResponse{
		ID:             request.ID,
		RelationshipID: request.RelationshipID,
		PermissionSlug: request.PermissionSlug,
		RequestedBy:    request.RequestedBy,
		Message:        request.Message,
		Status:         request.Status,
		RequestedAt:    request.RequestedAt.Time,
	}
	if request.RespondedAt.Valid {
		t := request.RespondedAt.Time
		resp.RespondedAt = &t
	}
	return resp
}

func (s *Server) ListRequests(w http.ResponseWriter, r *http.Request) {
	relationshipID, ok := pathUUID(w, r, "relationshipID")
	if !ok {
		return
	}
	if _, _, ok := s.loadRelationshipForUser(w, r, relationshipID); !ok {
		return
	}

	requests, err := s.requests.ListByRelationship(r.Context(), relationshipID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := make([]RequestResponse, 0, len(requests))
	for _, request := range requests {
		response = append(response, toRequestResponse(request))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": response})
}

type CreateRequestBody struct {
	PermissionSlug string `json:"permission_slug"`
	Message        string `json:"message"`
}

func (s *Server) CreateRequest(w http.ResponseWriter, r *http.Request) {
	relationshipID, ok := pathUUID(w, r, "relationshipID")
	if !ok {
		return
	}
	rel, user, ok := s.loadRelationshipForUser(w, r, relationshipID)
	if !ok {
		return
	}
	if rel.ProfessionalID != user.ID {
		writeError(w, http.StatusForbidden, PermissionDenied("Only the professional can request permissions"))
		return
	}

	var body CreateRequestBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.PermissionSlug == "" {
		writeError(w, http.StatusBadRequest, ValidationErr("permission_slug is required", nil))
		return
	}

	request, err := s.requests.CreateRequest(r.Context(), relationshipID, body.PermissionSlug, body.Message, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestResponse(request))
}

type RespondBody struct {
	Approve bool `json:"approve"`
}

type RespondResponse struct {
	Request RequestResponse `json:"request"`
	Grant   *GrantResponse  `json:"grant,omitempty"`
}

func (s *Server) RespondToRequest(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathUUID(w, r, "requestID")
	if !ok {
		return
	}
	user, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var body RespondBody
	if !decodeBody(w, r, &body) {
		return
	}

	request, result, err := s.requests.Respond(r.Context(), requestID, body.Approve, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := RespondResponse{Request: toRequestResponse(request)}
	if result != nil {
		grant := toGrantResponse(result.Grant)
		grant.TransferredFrom = result.TransferredFrom
		response.Grant = &grant
	}
	writeJSON(w, http.StatusOK, response)
}
