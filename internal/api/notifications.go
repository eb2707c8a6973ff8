package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/peakform/coach-backend/generated/db"
)

type NotificationResponse struct {
	ID        uuid.UUID       `json:"id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	IsRead    bool            `json:"is_read"`
	CreatedAt time.Time       `json:"created_at"`
}

func toNotificationResponse(n db.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		EventType: n.EventType,
		Payload:   json.RawMessage(n.Payload),
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Time,
	}
}

func (s *Server) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	limit, offset := parsePagination(r)

	rows, err := s.notifications.GetUserNotifications(r.Context(), user.ID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := make([]NotificationResponse, 0, len(rows))
	for _, n := range rows {
		response = append(response, toNotificationResponse(n))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": response})
}

func (s *Server) UnreadNotificationCount(w http.ResponseWriter, r *http.Request) {
	user, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	count, err := s.notifications.GetUnreadCount(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unread": count})
}

func (s *Server) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	user, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	notificationID, ok := pathUUID(w, r, "notificationID")
	if !ok {
		return
	}

	notification, err := s.notifications.MarkAsRead(r.Context(), user.ID, notificationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, NotFound("notification"))
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationResponse(notification))
}
