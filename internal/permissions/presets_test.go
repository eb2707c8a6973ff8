package permissions_test

import (
	. "github.com/peakform/coach-backend/internal/permissions"

	"context"
	"testing"

	"github.com/peakform/coach-backend/generated/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enabledEntries(slugs ...string) []PresetEntry {
	entries := make([]PresetEntry, 0, len(slugs))
	for _, slug := range slugs {
		entries = append(entries, PresetEntry{Slug: slug, Enabled: true})
	}
	return entries
}

func presetByName(t *testing.T, svc *testServices, name string) PresetWithItems {
	t.Helper()
	presets, err := svc.presets.List(context.Background())
	require.NoError(t, err)
	for _, p := range presets {
		if p.Preset.Name == name {
			return p
		}
	}
	t.Fatalf("preset %q not found", name)
	return PresetWithItems{}
}

func systemPreset(t *testing.T, svc *testServices) PresetWithItems {
	t.Helper()
	presets, err := svc.presets.List(context.Background())
	require.NoError(t, err)
	for _, p := range presets {
		if p.Preset.IsSystem {
			return p
		}
	}
	t.Fatal("no system preset seeded")
	return PresetWithItems{}
}

func TestCreateCustomPreset(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	svc := newTestServices(t)
	ctx := context.Background()

	owner := svc.db.NewUser(t).AsProfessional().Create()

	created, err := svc.presets.Create(ctx, "Nutrition focus", "macros and weigh-ins", []PresetEntry{
		{Slug: SetNutritionTargets, Enabled: true},
		{Slug: ViewNutrition, Enabled: true},
		{Slug: EditRoutines, Enabled: false},
	}, owner.ID)
	require.NoError(t, err)
	assert.False(t, created.Preset.IsSystem)
	require.NotNil(t, created.Preset.CreatedBy)
	assert.Equal(t, owner.ID, *created.Preset.CreatedBy)

	fetched, err := svc.presets.Get(ctx, created.Preset.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{SetNutritionTargets, ViewNutrition}, fetched.EnabledSlugs())
	assert.Contains(t, fetched.Entries, PresetEntry{Slug: EditRoutines, Enabled: false})

	t.Run("missing name", func(t *testing.T) {
		_, err := svc.presets.Create(ctx, "", "", enabledEntries(ViewNutrition), owner.ID)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("empty entry list", func(t *testing.T) {
		_, err := svc.presets.Create(ctx, "Empty", "", nil, owner.ID)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("unknown slug", func(t *testing.T) {
		_, err := svc.presets.Create(ctx, "Broken", "", enabledEntries("no_such_permission"), owner.ID)
		var notFoundErr *NotFoundError
		require.ErrorAs(t, err, &notFoundErr)
	})
}

func TestUpdatePresetAuthorization(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	svc := newTestServices(t)
	ctx := context.Background()

	owner := svc.db.NewUser(t).AsProfessional().Create()
	stranger := svc.db.NewUser(t).AsProfessional().Create()
	admin := svc.db.NewUser(t).AsAdmin().Create()

	custom, err := svc.presets.Create(ctx, "Check-in bundle", "", enabledEntries(ViewCheckIns), owner.ID)
	require.NoError(t, err)

	t.Run("owner may update", func(t *testing.T) {
		updated, err := svc.presets.Update(ctx, custom.Preset.ID, "Check-in bundle", "now with messaging",
			enabledEntries(ViewCheckIns, MessageClient), ProfessionalActor(owner.ID), "")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{ViewCheckIns, MessageClient}, updated.EnabledSlugs())
	})

	t.Run("stranger may not", func(t *testing.T) {
		_, err := svc.presets.Update(ctx, custom.Preset.ID, "Hijacked", "",
			enabledEntries(ViewCheckIns), ProfessionalActor(stranger.ID), "")
		var authErr *AuthorizationError
		require.ErrorAs(t, err, &authErr)
	})

	system := systemPreset(t, svc)

	t.Run("system preset needs an admin", func(t *testing.T) {
		_, err := svc.presets.Update(ctx, system.Preset.ID, system.Preset.Name, system.Preset.Description,
			system.Entries, ProfessionalActor(owner.ID), "")
		var authErr *AuthorizationError
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("system preset needs a reason", func(t *testing.T) {
		_, err := svc.presets.Update(ctx, system.Preset.ID, system.Preset.Name, system.Preset.Description,
			system.Entries, AdminActor(admin.ID), "short")
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("admin with reason updates system preset", func(t *testing.T) {
		_, err := svc.presets.Update(ctx, system.Preset.ID, system.Preset.Name, system.Preset.Description,
			system.Entries, AdminActor(admin.ID), "aligning bundle with new onboarding flow")
		require.NoError(t, err)

		events, _, err := svc.audit.List(ctx, nil, EventPresetUpdated, 10, 0)
		require.NoError(t, err)
		require.Len(t, events, 1)
	})
}

func TestDeletePreset(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	svc := newTestServices(t)
	ctx := context.Background()

	owner := svc.db.NewUser(t).AsProfessional().Create()
	admin := svc.db.NewUser(t).AsAdmin().Create()

	custom, err := svc.presets.Create(ctx, "Short lived", "", enabledEntries(ViewNutrition), owner.ID)
	require.NoError(t, err)

	require.NoError(t, svc.presets.Delete(ctx, custom.Preset.ID, ProfessionalActor(owner.ID), ""))

	_, err = svc.presets.Get(ctx, custom.Preset.ID)
	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr)

	t.Run("system delete is audited", func(t *testing.T) {
		system := systemPreset(t, svc)
		require.NoError(t, svc.presets.Delete(ctx, system.Preset.ID, AdminActor(admin.ID), "bundle retired with the old plans"))

		events, _, err := svc.audit.List(ctx, nil, EventPresetDeleted, 10, 0)
		require.NoError(t, err)
		require.Len(t, events, 1)
	})
}

func TestApplyPreset(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	svc := newTestServices(t)
	ctx := context.Background()

	client := svc.db.NewUser(t).AsClient().Create()
	professional := svc.db.NewUser(t).AsProfessional().Create()
	rel := svc.db.NewRelationship(t, client, professional).Create()

	preset, err := svc.presets.Create(ctx, "Full coaching", "",
		enabledEntries(ViewNutrition, AssignProgrammes), professional.ID)
	require.NoError(t, err)

	// Unverified professional: AssignProgrammes fails, the rest still lands
	outcomes, err := svc.presets.Apply(ctx, preset.Preset.ID, rel.ID, ProfessionalActor(professional.ID))
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	bySlug := make(map[string]ApplyOutcome, len(outcomes))
	for _, o := range outcomes {
		bySlug[o.Slug] = o
	}
	assert.True(t, bySlug[ViewNutrition].Granted)
	assert.False(t, bySlug[AssignProgrammes].Granted)
	assert.NotEmpty(t, bySlug[AssignProgrammes].Error)

	grant, err := svc.db.Queries().GetActiveGrant(ctx, db.GetActiveGrantParams{
		RelationshipID: rel.ID,
		PermissionSlug: ViewNutrition,
	})
	require.NoError(t, err)
	assert.Equal(t, GrantedByPreset, grant.GrantedBy)

	applied, err := svc.db.Queries().CountAuditEventsByType(ctx, db.CountAuditEventsByTypeParams{
		EventType:      EventPresetApplied,
		RelationshipID: &rel.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, applied)
}

func TestApplyPresetRevokesDisabledEntries(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	svc := newTestServices(t)
	ctx := context.Background()

	client := svc.db.NewUser(t).AsClient().Create()
	professional := svc.db.NewUser(t).AsProfessional().Create()
	rel := svc.db.NewRelationship(t, client, professional).Create()

	_, err := svc.grants.Grant(ctx, rel.ID, EditRoutines, GrantedByClient, ClientActor(client.ID))
	require.NoError(t, err)

	// The seeded Nutrition Only bundle disables edit_routines and
	// assign_programmes alongside the nutrition grants.
	preset := presetByName(t, svc, "Nutrition Only")
	require.Contains(t, preset.Entries, PresetEntry{Slug: EditRoutines, Enabled: false})

	outcomes, err := svc.presets.Apply(ctx, preset.Preset.ID, rel.ID, ClientActor(client.ID))
	require.NoError(t, err)
	require.Len(t, outcomes, len(preset.Entries))

	bySlug := make(map[string]ApplyOutcome, len(outcomes))
	for _, o := range outcomes {
		bySlug[o.Slug] = o
	}
	assert.True(t, bySlug[SetNutritionTargets].Granted)
	assert.True(t, bySlug[ViewNutrition].Granted)
	assert.True(t, bySlug[EditRoutines].Revoked)
	assert.False(t, bySlug[EditRoutines].Granted)
	// Disabled entry the relationship never held is still a clean outcome
	assert.True(t, bySlug[AssignProgrammes].Revoked)
	assert.Empty(t, bySlug[AssignProgrammes].Error)

	slugs, err := svc.grants.ListGranted(ctx, rel.ID)
	require.NoError(t, err)
	assert.NotContains(t, slugs, EditRoutines)
	assert.Contains(t, slugs, ViewNutrition)

	_, revokes, err := svc.audit.List(ctx, &client.ID, EventRevoke, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, revokes)
}
