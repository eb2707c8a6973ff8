package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/peakform/coach-backend/generated/db"
	"github.com/peakform/coach-backend/internal/logging"
	"github.com/peakform/coach-backend/internal/permissions"
	"github.com/peakform/coach-backend/internal/queue"
)

// resolves a user ID to an email address.
type EmailLookupFunc func(ctx context.Context, id uuid.UUID) (string, error)

// subset of TaskQueue.
type queueService interface {
	Enqueue(taskType string, data interface{}) (*asynq.TaskInfo, error)
}

// NotificationDispatcher turns committed grant events into in-app
// notifications and queued emails. It subscribes to the permission services
// as their post-commit event sink; failures here are logged, never
// propagated back into the mutation path.
type NotificationDispatcher struct {
	svc         *NotificationService
	queries     *db.Queries
	queue       queueService
	templates   *template.Template
	emailLookup EmailLookupFunc
}

func NewNotificationDispatcher(svc *NotificationService, queries *db.Queries, q queueService, tmpl *template.Template, lookup EmailLookupFunc) *NotificationDispatcher {
	return &NotificationDispatcher{
		svc:         svc,
		queries:     queries,
		queue:       q,
		templates:   tmpl,
		emailLookup: lookup,
	}
}

func NewEmailLookupFunc(queries *db.Queries) EmailLookupFunc {
	return func(ctx context.Context, id uuid.UUID) (string, error) {
		user, err := queries.GetUserByID(ctx, id)
		if err != nil {
			return "", err
		}
		return user.Email, nil
	}
}

type eventPayload struct {
	PermissionSlug string     `json:"permission_slug"`
	RelationshipID uuid.UUID  `json:"relationship_id"`
	ClientID       uuid.UUID  `json:"client_id"`
	TransferredTo  *uuid.UUID `json:"transferred_to,omitempty"`
}

// Publish implements permissions.EventPublisher. The professional on the
// affected relationship always hears about the change; a transfer also
// tells the professional who lost the capability.
func (d *NotificationDispatcher) Publish(ctx context.Context, event permissions.GrantEvent) {
	rel, err := d.queries.GetRelationshipByID(ctx, event.RelationshipID)
	if err != nil {
		logging.Error("failed to load relationship for notification",
			"relationship_id", event.RelationshipID, "error", err)
		return
	}

	payload := eventPayload{
		PermissionSlug: event.PermissionSlug,
		RelationshipID: event.RelationshipID,
		ClientID:       event.ClientID,
	}

	templateName := ""
	switch event.Type {
	case permissions.EventGrant, permissions.EventTransfer:
		templateName = "permission_granted"
	case permissions.EventRevoke:
		templateName = "permission_revoked"
	}
	d.deliver(ctx, rel.ProfessionalID, event.Type, payload, templateName)

	if event.TransferredFrom != nil {
		loser, err := d.queries.GetRelationshipByID(ctx, *event.TransferredFrom)
		if err != nil {
			logging.Error("failed to load losing relationship for notification",
				"relationship_id", *event.TransferredFrom, "error", err)
			return
		}
		loserPayload := payload
		loserPayload.RelationshipID = loser.ID
		loserPayload.TransferredTo = &rel.ID
		d.deliver(ctx, loser.ProfessionalID, "permission_transferred_away", loserPayload, "permission_transferred")
	}
}

func (d *NotificationDispatcher) deliver(ctx context.Context, userID uuid.UUID, eventType string, payload eventPayload, templateName string) {
	if _, err := d.svc.Publish(ctx, userID, eventType, payload); err != nil {
		logging.Error("failed to write in-app notification",
			"user_id", userID, "event_type", eventType, "error", err)
	}
	if templateName == "" || d.templates == nil {
		return
	}
	d.sendEmail(ctx, userID, templateName, map[string]interface{}{
		"PermissionSlug": payload.PermissionSlug,
		"RelationshipID": payload.RelationshipID.String(),
	})
}

func (d *NotificationDispatcher) sendEmail(ctx context.Context, userID uuid.UUID, templateName string, data map[string]interface{}) {
	if d.emailLookup == nil {
		logging.Error("email lookup func is nil, skipping email dispatch", "template", templateName)
		return
	}
	email, err := d.emailLookup(ctx, userID)
	if err != nil {
		logging.Error("failed to look up email for notification",
			"user_id", userID, "template", templateName, "error", err)
		return
	}

	subject, body, err := d.renderTemplate(templateName, data)
	if err != nil {
		logging.Error("failed to render notification template", "template", templateName, "error", err)
		return
	}

	if _, err := d.queue.Enqueue(queue.TypeEmailDelivery, queue.EmailDeliveryPayload{
		To:      email,
		Subject: subject,
		Body:    body,
	}); err != nil {
		logging.Error("failed to enqueue notification email",
			"to", email, "template", templateName, "error", err)
	}
}

// {{define "name:subject"}} and {{define "name:body"}}
func (d *NotificationDispatcher) renderTemplate(name string, data map[string]interface{}) (subject, body string, err error) {
	var subjectBuf bytes.Buffer
	if err = d.templates.ExecuteTemplate(&subjectBuf, name+":subject", data); err != nil {
		return "", "", fmt.Errorf("render subject for %q: %w", name, err)
	}

	var bodyBuf bytes.Buffer
	if err = d.templates.ExecuteTemplate(&bodyBuf, name+":body", data); err != nil {
		return "", "", fmt.Errorf("render body for %q: %w", name, err)
	}

	return subjectBuf.String(), bodyBuf.String(), nil
}
