package permissions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peakform/coach-backend/generated/db"
)

// PresetService manages named permission bundles. System presets ship with
// the platform and need an admin with a written reason to change; custom
// presets belong to the professional who created them.
type PresetService struct {
	pool    *pgxpool.Pool
	queries *db.Queries
	grants  *GrantService
	audit   *AuditLogger
}

func NewPresetService(pool *pgxpool.Pool, queries *db.Queries, grants *GrantService, audit *AuditLogger) *PresetService {
	return &PresetService{pool: pool, queries: queries, grants: grants, audit: audit}
}

// PresetEntry is one line of a preset: applying the preset grants the slug
// when Enabled and revokes it when not.
type PresetEntry struct {
	Slug    string `json:"slug"`
	Enabled bool   `json:"enabled"`
}

// PresetWithItems pairs a preset with its full entry list, disabled
// entries included.
type PresetWithItems struct {
	Preset  db.PermissionPreset
	Entries []PresetEntry
}

// EnabledSlugs returns the slugs the preset grants on apply.
func (p PresetWithItems) EnabledSlugs() []string {
	slugs := make([]string, 0, len(p.Entries))
	for _, entry := range p.Entries {
		if entry.Enabled {
			slugs = append(slugs, entry.Slug)
		}
	}
	return slugs
}

func (s *PresetService) List(ctx context.Context) ([]PresetWithItems, error) {
	presets, err := s.queries.ListPresets(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing presets: %w", err)
	}
	out := make([]PresetWithItems, 0, len(presets))
	for _, preset := range presets {
		items, err := s.queries.ListPresetItems(ctx, preset.ID)
		if err != nil {
			return nil, fmt.Errorf("listing preset items: %w", err)
		}
		out = append(out, PresetWithItems{Preset: preset, Entries: entriesOf(items)})
	}
	return out, nil
}

func (s *PresetService) Get(ctx context.Context, presetID uuid.UUID) (PresetWithItems, error) {
	preset, err := s.queries.GetPreset(ctx, presetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PresetWithItems{}, notFound("preset")
		}
		return PresetWithItems{}, fmt.Errorf("loading preset: %w", err)
	}
	if !preset.IsActive {
		return PresetWithItems{}, notFound("preset")
	}
	items, err := s.queries.ListPresetItems(ctx, presetID)
	if err != nil {
		return PresetWithItems{}, fmt.Errorf("listing preset items: %w", err)
	}
	return PresetWithItems{Preset: preset, Entries: entriesOf(items)}, nil
}

func entriesOf(items []db.PermissionPresetItem) []PresetEntry {
	entries := make([]PresetEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, PresetEntry{Slug: item.PermissionSlug, Enabled: item.IsEnabled})
	}
	return entries
}

// Create builds a custom preset owned by the calling professional.
func (s *PresetService) Create(ctx context.Context, name, description string, entries []PresetEntry, ownerID uuid.UUID) (PresetWithItems, error) {
	if name == "" {
		return PresetWithItems{}, validationf("preset name is required")
	}
	if err := s.validateEntries(ctx, entries); err != nil {
		return PresetWithItems{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return PresetWithItems{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := s.queries.WithTx(tx)

	preset, err := qtx.CreatePreset(ctx, db.CreatePresetParams{
		Name:        name,
		Description: description,
		IsSystem:    false,
		CreatedBy:   &ownerID,
	})
	if err != nil {
		return PresetWithItems{}, fmt.Errorf("creating preset: %w", err)
	}
	for _, entry := range entries {
		if err := qtx.UpsertPresetItem(ctx, db.UpsertPresetItemParams{
			PresetID:       preset.ID,
			PermissionSlug: entry.Slug,
			IsEnabled:      entry.Enabled,
		}); err != nil {
			return PresetWithItems{}, fmt.Errorf("adding preset item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return PresetWithItems{}, fmt.Errorf("failed to commit preset: %w", err)
	}
	return PresetWithItems{Preset: preset, Entries: entries}, nil
}

// Update replaces a preset's name, description, and entry list. System
// presets require an admin actor with a reason; custom presets may only be
// edited by their owner or an admin.
func (s *PresetService) Update(ctx context.Context, presetID uuid.UUID, name, description string, entries []PresetEntry, actor Actor, reason string) (PresetWithItems, error) {
	existing, err := s.Get(ctx, presetID)
	if err != nil {
		return PresetWithItems{}, err
	}
	if err := s.authorizePresetWrite(existing.Preset, actor, reason); err != nil {
		return PresetWithItems{}, err
	}
	if name == "" {
		return PresetWithItems{}, validationf("preset name is required")
	}
	if err := s.validateEntries(ctx, entries); err != nil {
		return PresetWithItems{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return PresetWithItems{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := s.queries.WithTx(tx)

	preset, err := qtx.UpdatePreset(ctx, db.UpdatePresetParams{
		ID:          presetID,
		Name:        name,
		Description: description,
	})
	if err != nil {
		return PresetWithItems{}, fmt.Errorf("updating preset: %w", err)
	}
	if err := qtx.DeletePresetItems(ctx, presetID); err != nil {
		return PresetWithItems{}, fmt.Errorf("clearing preset items: %w", err)
	}
	for _, entry := range entries {
		if err := qtx.UpsertPresetItem(ctx, db.UpsertPresetItemParams{
			PresetID:       presetID,
			PermissionSlug: entry.Slug,
			IsEnabled:      entry.Enabled,
		}); err != nil {
			return PresetWithItems{}, fmt.Errorf("adding preset item: %w", err)
		}
	}

	if existing.Preset.IsSystem {
		if err := s.audit.RecordTx(ctx, qtx, AuditEvent{
			Actor:     actor,
			EventType: EventPresetUpdated,
			Reason:    reason,
			Metadata: AuditMetadata{
				PresetID: &presetID,
			},
		}); err != nil {
			return PresetWithItems{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return PresetWithItems{}, fmt.Errorf("failed to commit preset update: %w", err)
	}
	return PresetWithItems{Preset: preset, Entries: entries}, nil
}

// Delete soft-deletes a preset. Existing grants made from it are untouched.
func (s *PresetService) Delete(ctx context.Context, presetID uuid.UUID, actor Actor, reason string) error {
	existing, err := s.Get(ctx, presetID)
	if err != nil {
		return err
	}
	if err := s.authorizePresetWrite(existing.Preset, actor, reason); err != nil {
		return err
	}

	if _, err := s.queries.SoftDeletePreset(ctx, presetID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound("preset")
		}
		return fmt.Errorf("deleting preset: %w", err)
	}

	if existing.Preset.IsSystem {
		return s.audit.Record(ctx, AuditEvent{
			Actor:     actor,
			EventType: EventPresetDeleted,
			Reason:    reason,
			Metadata:  AuditMetadata{PresetID: &presetID},
		})
	}
	return nil
}

func (s *PresetService) authorizePresetWrite(preset db.PermissionPreset, actor Actor, reason string) error {
	if preset.IsSystem {
		if actor.Type != ActorAdmin {
			return authorizationf("system presets can only be changed by an admin")
		}
		return validateReason(reason)
	}
	if actor.Type == ActorAdmin {
		return nil
	}
	if preset.CreatedBy == nil || actor.ID == nil || *preset.CreatedBy != *actor.ID {
		return authorizationf("only the preset's owner can change it")
	}
	return nil
}

func (s *PresetService) validateEntries(ctx context.Context, entries []PresetEntry) error {
	if len(entries) == 0 {
		return validationf("a preset needs at least one permission")
	}
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if seen[entry.Slug] {
			return validationf("duplicate permission %s in preset", entry.Slug)
		}
		seen[entry.Slug] = true
		if _, err := s.queries.GetPermissionDefinition(ctx, entry.Slug); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return notFound("permission " + entry.Slug)
			}
			return fmt.Errorf("loading permission definition: %w", err)
		}
	}
	return nil
}

// ApplyOutcome is the per-slug result of applying a preset.
type ApplyOutcome struct {
	Slug            string     `json:"slug"`
	Granted         bool       `json:"granted"`
	Revoked         bool       `json:"revoked"`
	TransferredFrom *uuid.UUID `json:"transferred_from,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// Apply walks the preset's entries on the relationship: enabled entries are
// granted, disabled entries revoked. Application is best-effort per slug: a
// slug that fails its checks is reported in the outcome and does not block
// the rest.
func (s *PresetService) Apply(ctx context.Context, presetID, relationshipID uuid.UUID, actor Actor) ([]ApplyOutcome, error) {
	preset, err := s.Get(ctx, presetID)
	if err != nil {
		return nil, err
	}

	rel, err := s.queries.GetRelationshipByID(ctx, relationshipID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("relationship")
		}
		return nil, fmt.Errorf("loading relationship: %w", err)
	}
	if rel.Status != RelationshipActive {
		return nil, validationf("relationship %s is not active", relationshipID)
	}

	grantedBy := GrantedByPreset
	if actor.Type == ActorAdmin {
		grantedBy = GrantedByAdmin
	}

	outcomes := make([]ApplyOutcome, 0, len(preset.Entries))
	for _, entry := range preset.Entries {
		outcome := ApplyOutcome{Slug: entry.Slug}
		if entry.Enabled {
			result, err := s.grants.Grant(ctx, relationshipID, entry.Slug, grantedBy, actor)
			if err != nil {
				outcome.Error = err.Error()
			} else {
				outcome.Granted = true
				outcome.TransferredFrom = result.TransferredFrom
			}
		} else {
			if err := s.grants.Revoke(ctx, relationshipID, entry.Slug, actor); err != nil {
				outcome.Error = err.Error()
			} else {
				outcome.Revoked = true
			}
		}
		outcomes = append(outcomes, outcome)
	}

	if err := s.audit.Record(ctx, AuditEvent{
		Actor:          actor,
		EventType:      EventPresetApplied,
		ClientID:       &rel.ClientID,
		RelationshipID: &rel.ID,
		Metadata: AuditMetadata{
			PresetID:      &presetID,
			ApprovedSlugs: grantedOf(outcomes),
			RevokedSlugs:  revokedOf(outcomes),
			RejectedSlugs: failedOf(outcomes),
		},
	}); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func grantedOf(outcomes []ApplyOutcome) []string {
	var slugs []string
	for _, o := range outcomes {
		if o.Granted {
			slugs = append(slugs, o.Slug)
		}
	}
	return slugs
}

func revokedOf(outcomes []ApplyOutcome) []string {
	var slugs []string
	for _, o := range outcomes {
		if o.Revoked {
			slugs = append(slugs, o.Slug)
		}
	}
	return slugs
}

func failedOf(outcomes []ApplyOutcome) []string {
	var slugs []string
	for _, o := range outcomes {
		if o.Error != "" {
			slugs = append(slugs, o.Slug)
		}
	}
	return slugs
}
