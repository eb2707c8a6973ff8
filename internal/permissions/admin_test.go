package permissions_test

import (
	. "github.com/peakform/coach-backend/internal/permissions"

	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/peakform/coach-backend/generated/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForceConnect(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	svc := newTestServices(t)
	ctx := context.Background()

	admin := svc.db.NewUser(t).AsAdmin().Create()
	client := svc.db.NewUser(t).AsClient().Create()
	professional := svc.db.NewUser(t).AsProfessional().Create()

	t.Run("requires an admin actor", func(t *testing.T) {
		_, _, err := svc.admin.ForceConnect(ctx, client.ID, professional.ID, nil,
			ProfessionalActor(professional.ID), "support ticket 4821")
		var authErr *AuthorizationError
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("requires a reason", func(t *testing.T) {
		_, _, err := svc.admin.ForceConnect(ctx, client.ID, professional.ID, nil, AdminActor(admin.ID), "short")
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("rejects role mismatch", func(t *testing.T) {
		_, _, err := svc.admin.ForceConnect(ctx, professional.ID, client.ID, nil, AdminActor(admin.ID), "support ticket 4821")
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	rel, outcomes, err := svc.admin.ForceConnect(ctx, client.ID, professional.ID, nil, AdminActor(admin.ID), "support ticket 4821")
	require.NoError(t, err)
	assert.Empty(t, outcomes)
	assert.Equal(t, RelationshipActive, rel.Status)
	assert.Equal(t, client.ID, rel.ClientID)

	connects, err := svc.db.Queries().CountAuditEventsByType(ctx, db.CountAuditEventsByTypeParams{
		EventType:      EventForceConnect,
		RelationshipID: &rel.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, connects)

	t.Run("revives the same pair", func(t *testing.T) {
		_, err := svc.db.Queries().EndRelationship(ctx, rel.ID)
		require.NoError(t, err)

		revived, _, err := svc.admin.ForceConnect(ctx, client.ID, professional.ID, nil, AdminActor(admin.ID), "reconnected after billing dispute")
		require.NoError(t, err)
		assert.Equal(t, rel.ID, revived.ID)
		assert.Equal(t, RelationshipActive, revived.Status)
	})
}

func TestForceConnectWithPreset(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	svc := newTestServices(t)
	ctx := context.Background()

	admin := svc.db.NewUser(t).AsAdmin().Create()
	client := svc.db.NewUser(t).AsClient().Create()
	professional := svc.db.NewUser(t).AsProfessional().Verified().Create()

	preset := svc.db.CreatePreset(t, "Onboarding", admin.ID, ViewNutrition, AssignProgrammes)

	rel, outcomes, err := svc.admin.ForceConnect(ctx, client.ID, professional.ID, &preset.ID,
		AdminActor(admin.ID), "migrated from legacy platform")
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	for _, outcome := range outcomes {
		assert.True(t, outcome.Granted, "slug %s", outcome.Slug)
	}

	slugs, err := svc.grants.ListGranted(ctx, rel.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{ViewNutrition, AssignProgrammes}, slugs)

	// Admin-applied presets record the admin as the grant source
	grant, err := svc.db.Queries().GetActiveGrant(ctx, db.GetActiveGrantParams{
		RelationshipID: rel.ID,
		PermissionSlug: ViewNutrition,
	})
	require.NoError(t, err)
	assert.Equal(t, GrantedByAdmin, grant.GrantedBy)
}

func TestForceDisconnect(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	svc := newTestServices(t)
	ctx := context.Background()

	admin := svc.db.NewUser(t).AsAdmin().Create()
	client := svc.db.NewUser(t).AsClient().Create()
	professional := svc.db.NewUser(t).AsProfessional().Create()
	rel := svc.db.NewRelationship(t, client, professional).Create()

	_, err := svc.grants.Grant(ctx, rel.ID, ViewNutrition, GrantedByClient, ClientActor(client.ID))
	require.NoError(t, err)
	_, err = svc.grants.Grant(ctx, rel.ID, MessageClient, GrantedByClient, ClientActor(client.ID))
	require.NoError(t, err)

	revoked, err := svc.admin.ForceDisconnect(ctx, rel.ID, AdminActor(admin.ID), "client reported misconduct")
	require.NoError(t, err)
	assert.Equal(t, 2, revoked)

	ended, err := svc.db.Queries().GetRelationshipByID(ctx, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, RelationshipEnded, ended.Status)

	slugs, err := svc.grants.ListGranted(ctx, rel.ID)
	require.NoError(t, err)
	assert.Empty(t, slugs)

	// One revoke event per slug plus the disconnect itself
	revokes, err := svc.db.Queries().CountAuditEventsByType(ctx, db.CountAuditEventsByTypeParams{
		EventType:      EventRevoke,
		RelationshipID: &rel.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, revokes)

	disconnects, err := svc.db.Queries().CountAuditEventsByType(ctx, db.CountAuditEventsByTypeParams{
		EventType:      EventForceDisconnect,
		RelationshipID: &rel.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, disconnects)

	assert.Len(t, svc.publisher.ByType(EventRevoke), 2)

	t.Run("already ended", func(t *testing.T) {
		_, err := svc.admin.ForceDisconnect(ctx, rel.ID, AdminActor(admin.ID), "client reported misconduct")
		var conflictErr *ConflictError
		require.ErrorAs(t, err, &conflictErr)
	})
}

func TestResolveExclusiveDuplicates(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	svc := newTestServices(t)
	ctx := context.Background()

	admin := svc.db.NewUser(t).AsAdmin().Create()
	client := svc.db.NewUser(t).AsClient().Create()
	relA := svc.db.NewRelationship(t, client, svc.db.NewUser(t).AsProfessional().Create()).Create()
	relB := svc.db.NewRelationship(t, client, svc.db.NewUser(t).AsProfessional().Create()).Create()
	relC := svc.db.NewRelationship(t, client, svc.db.NewUser(t).AsProfessional().Create()).Create()

	// Anomaly left behind by a forced exclusivity toggle
	svc.db.CreateGrant(t, relA, SetWeightTargets, false)
	svc.db.CreateGrant(t, relB, SetWeightTargets, false)
	svc.db.CreateGrant(t, relC, SetWeightTargets, false)

	t.Run("non-exclusive slug", func(t *testing.T) {
		_, err := svc.admin.ResolveExclusiveDuplicates(ctx, client.ID, ViewNutrition, relA.ID,
			AdminActor(admin.ID), "cleaning up after forced toggle")
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("keep must be a holder", func(t *testing.T) {
		other := svc.db.NewRelationship(t, client, svc.db.NewUser(t).AsProfessional().Create()).Create()
		_, err := svc.admin.ResolveExclusiveDuplicates(ctx, client.ID, SetWeightTargets, other.ID,
			AdminActor(admin.ID), "cleaning up after forced toggle")
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	resolution, err := svc.admin.ResolveExclusiveDuplicates(ctx, client.ID, SetWeightTargets, relB.ID,
		AdminActor(admin.ID), "cleaning up after forced toggle")
	require.NoError(t, err)
	assert.Equal(t, 2, resolution.Resolved)
	assert.Equal(t, relB.ID, resolution.WinnerPreserved)
	assert.ElementsMatch(t, []uuid.UUID{relA.ID, relC.ID}, resolution.RevokedFrom)

	holders, err := svc.grants.HoldersOf(ctx, client.ID, SetWeightTargets)
	require.NoError(t, err)
	require.Len(t, holders, 1)
	assert.Equal(t, relB.ID, holders[0])

	resolved, err := svc.db.Queries().CountAuditEventsByType(ctx, db.CountAuditEventsByTypeParams{
		EventType:      EventDuplicatesResolved,
		RelationshipID: &relB.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, resolved)

	t.Run("no remaining duplicates", func(t *testing.T) {
		_, err := svc.admin.ResolveExclusiveDuplicates(ctx, client.ID, SetWeightTargets, relB.ID,
			AdminActor(admin.ID), "cleaning up after forced toggle")
		var conflictErr *ConflictError
		require.ErrorAs(t, err, &conflictErr)
	})
}
