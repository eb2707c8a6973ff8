package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/peakform/coach-backend/generated/db"
)

// NotificationService writes and reads in-app notifications. Each row is
// addressed to one user and carries the event payload as JSON.
type NotificationService struct {
	db *db.Queries
}

func NewNotificationService(queries *db.Queries) *NotificationService {
	return &NotificationService{db: queries}
}

func (s *NotificationService) Publish(ctx context.Context, userID uuid.UUID, eventType string, payload any) (db.Notification, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return db.Notification{}, fmt.Errorf("failed to marshal notification payload: %w", err)
	}
	notification, err := s.db.CreateNotification(ctx, db.CreateNotificationParams{
		UserID:    userID,
		EventType: eventType,
		Payload:   raw,
	})
	if err != nil {
		return db.Notification{}, fmt.Errorf("failed to create notification for %s: %w", userID, err)
	}
	return notification, nil
}

func (s *NotificationService) GetUserNotifications(ctx context.Context, userID uuid.UUID, limit, offset int64) ([]db.Notification, error) {
	return s.db.ListUserNotifications(ctx, db.ListUserNotificationsParams{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) (db.Notification, error) {
	return s.db.MarkNotificationRead(ctx, db.MarkNotificationReadParams{
		ID:     notificationID,
		UserID: userID,
	})
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.db.CountUnreadNotifications(ctx, userID)
}
