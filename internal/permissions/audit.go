package permissions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/peakform/coach-backend/generated/db"
)

// Actor identifies who performed an operation.
type Actor struct {
	Type string // client, professional, admin, system
	ID   *uuid.UUID
}

func ClientActor(id uuid.UUID) Actor       { return Actor{Type: ActorClient, ID: &id} }
func ProfessionalActor(id uuid.UUID) Actor { return Actor{Type: ActorProfessional, ID: &id} }
func AdminActor(id uuid.UUID) Actor        { return Actor{Type: ActorAdmin, ID: &id} }
func SystemActor() Actor                   { return Actor{Type: ActorSystem} }

// AuditMetadata carries the structured fields the platform inspects plus an
// opaque extension map for anything else. Known fields win on key collisions.
type AuditMetadata struct {
	TransferredFrom  *uuid.UUID     `json:"transferred_from,omitempty"`
	TransferredTo    *uuid.UUID     `json:"transferred_to,omitempty"`
	KeptRelationship *uuid.UUID     `json:"kept_relationship,omitempty"`
	Exclusive        *bool          `json:"exclusive,omitempty"`
	Force            *bool          `json:"force,omitempty"`
	ConflictCount    *int           `json:"conflict_count,omitempty"`
	RevokedCount     *int           `json:"revoked_count,omitempty"`
	PresetID         *uuid.UUID     `json:"preset_id,omitempty"`
	ApprovedSlugs    []string       `json:"approved_slugs,omitempty"`
	RevokedSlugs     []string       `json:"revoked_slugs,omitempty"`
	RejectedSlugs    []string       `json:"rejected_slugs,omitempty"`
	Extra            map[string]any `json:"-"`
}

func (m AuditMetadata) MarshalJSON() ([]byte, error) {
	type known AuditMetadata
	raw, err := json.Marshal(known(m))
	if err != nil {
		return nil, err
	}
	if len(m.Extra) == 0 {
		return raw, nil
	}
	merged := make(map[string]json.RawMessage, len(m.Extra)+8)
	for k, v := range m.Extra {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		merged[k] = b
	}
	var knownFields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &knownFields); err != nil {
		return nil, err
	}
	for k, v := range knownFields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// AuditEvent is one row of the append-only ledger.
type AuditEvent struct {
	Actor          Actor
	EventType      string
	PermissionSlug string
	ClientID       *uuid.UUID
	RelationshipID *uuid.UUID
	Reason         string
	Metadata       AuditMetadata
}

// AuditLogger appends to and reads the permission audit ledger. Rows are
// never updated or deleted.
type AuditLogger struct {
	queries *db.Queries
}

func NewAuditLogger(queries *db.Queries) *AuditLogger {
	return &AuditLogger{queries: queries}
}

// Record appends an event outside any caller transaction.
func (l *AuditLogger) Record(ctx context.Context, event AuditEvent) error {
	return record(ctx, l.queries, event)
}

// RecordTx appends an event through the caller's transaction-bound queries,
// so the event commits or rolls back with the mutation it describes.
func (l *AuditLogger) RecordTx(ctx context.Context, qtx *db.Queries, event AuditEvent) error {
	return record(ctx, qtx, event)
}

func record(ctx context.Context, q *db.Queries, event AuditEvent) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling audit metadata: %w", err)
	}

	params := db.InsertAuditEventParams{
		ActorType:      event.Actor.Type,
		ActorID:        event.Actor.ID,
		EventType:      event.EventType,
		ClientID:       event.ClientID,
		RelationshipID: event.RelationshipID,
		Metadata:       metadata,
	}
	if event.PermissionSlug != "" {
		params.PermissionSlug = pgtype.Text{String: event.PermissionSlug, Valid: true}
	}
	if event.Reason != "" {
		params.Reason = pgtype.Text{String: event.Reason, Valid: true}
	}

	if _, err := q.InsertAuditEvent(ctx, params); err != nil {
		return fmt.Errorf("inserting audit event: %w", err)
	}
	return nil
}

// List returns a page of events, newest first, optionally filtered by
// client and event type.
func (l *AuditLogger) List(ctx context.Context, clientID *uuid.UUID, eventType string, limit, offset int64) ([]db.PermissionAuditLog, int64, error) {
	events, err := l.queries.ListAuditEvents(ctx, db.ListAuditEventsParams{
		ClientID:  clientID,
		EventType: eventType,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing audit events: %w", err)
	}
	total, err := l.queries.CountAuditEvents(ctx, db.CountAuditEventsParams{
		ClientID:  clientID,
		EventType: eventType,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("counting audit events: %w", err)
	}
	return events, total, nil
}
