package permissions_test

import (
	. "github.com/peakform/coach-backend/internal/permissions"

	"context"
	"testing"

	"github.com/peakform/coach-backend/generated/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetEnabled(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	svc := newTestServices(t)
	ctx := context.Background()

	admin := svc.db.NewUser(t).AsAdmin().Create()

	t.Run("rejects short reason", func(t *testing.T) {
		_, err := svc.registry.SetEnabled(ctx, ViewNutrition, false, AdminActor(admin.ID), "because")
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("disables platform-wide", func(t *testing.T) {
		def, err := svc.registry.SetEnabled(ctx, ViewNutrition, false, AdminActor(admin.ID), "disabled during data migration")
		require.NoError(t, err)
		assert.False(t, def.IsEnabled)

		events, _, err := svc.audit.List(ctx, nil, EventToggleEnabled, 10, 0)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, ActorAdmin, events[0].ActorType)
	})

	t.Run("unknown slug", func(t *testing.T) {
		_, err := svc.registry.SetEnabled(ctx, "no_such_permission", false, AdminActor(admin.ID), "disabled during data migration")
		var notFoundErr *NotFoundError
		require.ErrorAs(t, err, &notFoundErr)
	})
}

func TestToggleExclusiveCleanRestampsGrants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	svc := newTestServices(t)
	ctx := context.Background()

	admin := svc.db.NewUser(t).AsAdmin().Create()
	client := svc.db.NewUser(t).AsClient().Create()
	rel := svc.db.NewRelationship(t, client, svc.db.NewUser(t).AsProfessional().Create()).Create()

	_, err := svc.grants.Grant(ctx, rel.ID, EditRoutines, GrantedByClient, ClientActor(client.ID))
	require.NoError(t, err)

	def, err := svc.registry.ToggleExclusive(ctx, EditRoutines, true, false, AdminActor(admin.ID), "routines must have one owner")
	require.NoError(t, err)
	assert.True(t, def.IsExclusive)

	grant, err := svc.db.Queries().GetActiveGrant(ctx, db.GetActiveGrantParams{
		RelationshipID: rel.ID,
		PermissionSlug: EditRoutines,
	})
	require.NoError(t, err)
	assert.True(t, grant.IsExclusive)

	// Exclusive semantics apply immediately: a second holder transfers
	other := svc.db.NewRelationship(t, client, svc.db.NewUser(t).AsProfessional().Create()).Create()
	result, err := svc.grants.Grant(ctx, other.ID, EditRoutines, GrantedByClient, ClientActor(client.ID))
	require.NoError(t, err)
	require.NotNil(t, result.TransferredFrom)
	assert.Equal(t, rel.ID, *result.TransferredFrom)
}

func TestToggleExclusiveBlockedByConflicts(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	svc := newTestServices(t)
	ctx := context.Background()

	admin := svc.db.NewUser(t).AsAdmin().Create()
	client := svc.db.NewUser(t).AsClient().Create()
	relA := svc.db.NewRelationship(t, client, svc.db.NewUser(t).AsProfessional().Create()).Create()
	relB := svc.db.NewRelationship(t, client, svc.db.NewUser(t).AsProfessional().Create()).Create()

	// Shareable slug held twice by the same client
	_, err := svc.grants.Grant(ctx, relA.ID, EditRoutines, GrantedByClient, ClientActor(client.ID))
	require.NoError(t, err)
	_, err = svc.grants.Grant(ctx, relB.ID, EditRoutines, GrantedByClient, ClientActor(client.ID))
	require.NoError(t, err)

	_, err = svc.registry.ToggleExclusive(ctx, EditRoutines, true, false, AdminActor(admin.ID), "routines must have one owner")
	var toggleErr *ToggleConflictError
	require.ErrorAs(t, err, &toggleErr)
	assert.Equal(t, EditRoutines, toggleErr.Slug)
	assert.Equal(t, 1, toggleErr.ConflictCount)
	require.Len(t, toggleErr.AffectedClients, 1)
	assert.Equal(t, client.ID, toggleErr.AffectedClients[0])

	// Refused toggle leaves the definition untouched
	def, err := svc.registry.Get(ctx, EditRoutines)
	require.NoError(t, err)
	assert.False(t, def.IsExclusive)
}

func TestToggleExclusiveForcedLeavesAnomaly(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	svc := newTestServices(t)
	ctx := context.Background()

	admin := svc.db.NewUser(t).AsAdmin().Create()
	client := svc.db.NewUser(t).AsClient().Create()
	relA := svc.db.NewRelationship(t, client, svc.db.NewUser(t).AsProfessional().Create()).Create()
	relB := svc.db.NewRelationship(t, client, svc.db.NewUser(t).AsProfessional().Create()).Create()

	_, err := svc.grants.Grant(ctx, relA.ID, ViewCheckIns, GrantedByClient, ClientActor(client.ID))
	require.NoError(t, err)
	_, err = svc.grants.Grant(ctx, relB.ID, ViewCheckIns, GrantedByClient, ClientActor(client.ID))
	require.NoError(t, err)

	def, err := svc.registry.ToggleExclusive(ctx, ViewCheckIns, true, true, AdminActor(admin.ID), "forced by support escalation")
	require.NoError(t, err)
	assert.True(t, def.IsExclusive)

	// Existing rows are not restamped while the conflict stands
	grant, err := svc.db.Queries().GetActiveGrant(ctx, db.GetActiveGrantParams{
		RelationshipID: relA.ID,
		PermissionSlug: ViewCheckIns,
	})
	require.NoError(t, err)
	assert.False(t, grant.IsExclusive)

	// New grants hit the anomaly instead of silently healing it
	relC := svc.db.NewRelationship(t, client, svc.db.NewUser(t).AsProfessional().Create()).Create()
	_, err = svc.grants.Grant(ctx, relC.ID, ViewCheckIns, GrantedByClient, ClientActor(client.ID))
	var multiErr *MultipleHoldersError
	require.ErrorAs(t, err, &multiErr)
}

func TestToggleExclusiveBackToShareable(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	svc := newTestServices(t)
	ctx := context.Background()

	admin := svc.db.NewUser(t).AsAdmin().Create()
	client := svc.db.NewUser(t).AsClient().Create()
	relA := svc.db.NewRelationship(t, client, svc.db.NewUser(t).AsProfessional().Create()).Create()
	relB := svc.db.NewRelationship(t, client, svc.db.NewUser(t).AsProfessional().Create()).Create()

	_, err := svc.grants.Grant(ctx, relA.ID, SetNutritionTargets, GrantedByClient, ClientActor(client.ID))
	require.NoError(t, err)

	def, err := svc.registry.ToggleExclusive(ctx, SetNutritionTargets, false, false, AdminActor(admin.ID), "trialling shared nutrition coaching")
	require.NoError(t, err)
	assert.False(t, def.IsExclusive)

	grant, err := svc.db.Queries().GetActiveGrant(ctx, db.GetActiveGrantParams{
		RelationshipID: relA.ID,
		PermissionSlug: SetNutritionTargets,
	})
	require.NoError(t, err)
	assert.False(t, grant.IsExclusive)

	// Both relationships may now hold the slug
	result, err := svc.grants.Grant(ctx, relB.ID, SetNutritionTargets, GrantedByClient, ClientActor(client.ID))
	require.NoError(t, err)
	assert.Nil(t, result.TransferredFrom)

	count, err := svc.db.Queries().CountGrantedHolders(ctx, db.CountGrantedHoldersParams{
		ClientID:       client.ID,
		PermissionSlug: SetNutritionTargets,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
