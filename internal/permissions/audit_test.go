package permissions_test

import (
	. "github.com/peakform/coach-backend/internal/permissions"

	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditMetadataMarshalMergesExtra(t *testing.T) {
	from := uuid.New()
	count := 3

	metadata := AuditMetadata{
		TransferredFrom: &from,
		ConflictCount:   &count,
		Extra: map[string]any{
			"enabled":        true,
			"conflict_count": 99, // known field wins
		},
	}

	raw, err := json.Marshal(metadata)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, from.String(), decoded["transferred_from"])
	assert.Equal(t, float64(3), decoded["conflict_count"])
	assert.Equal(t, true, decoded["enabled"])
	assert.NotContains(t, decoded, "revoked_count")
}

func TestAuditMetadataMarshalWithoutExtra(t *testing.T) {
	raw, err := json.Marshal(AuditMetadata{})
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(raw))
}

func TestAuditListFilters(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	svc := newTestServices(t)
	ctx := context.Background()

	clientA := svc.db.NewUser(t).AsClient().Create()
	clientB := svc.db.NewUser(t).AsClient().Create()
	relA := svc.db.NewRelationship(t, clientA, svc.db.NewUser(t).AsProfessional().Create()).Create()
	relB := svc.db.NewRelationship(t, clientB, svc.db.NewUser(t).AsProfessional().Create()).Create()

	for _, slug := range []string{ViewNutrition, ViewCheckIns, MessageClient} {
		_, err := svc.grants.Grant(ctx, relA.ID, slug, GrantedByClient, ClientActor(clientA.ID))
		require.NoError(t, err)
	}
	_, err := svc.grants.Grant(ctx, relB.ID, ViewNutrition, GrantedByClient, ClientActor(clientB.ID))
	require.NoError(t, err)
	require.NoError(t, svc.grants.Revoke(ctx, relA.ID, MessageClient, ClientActor(clientA.ID)))

	t.Run("filter by client", func(t *testing.T) {
		events, total, err := svc.audit.List(ctx, &clientA.ID, "", 10, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
		assert.Len(t, events, 4)
	})

	t.Run("filter by client and event type", func(t *testing.T) {
		events, total, err := svc.audit.List(ctx, &clientA.ID, EventRevoke, 10, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, events, 1)
		assert.Equal(t, MessageClient, events[0].PermissionSlug.String)
	})

	t.Run("pagination", func(t *testing.T) {
		firstPage, total, err := svc.audit.List(ctx, &clientA.ID, "", 2, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
		assert.Len(t, firstPage, 2)

		secondPage, _, err := svc.audit.List(ctx, &clientA.ID, "", 2, 2)
		require.NoError(t, err)
		assert.Len(t, secondPage, 2)
		assert.NotEqual(t, firstPage[0].ID, secondPage[0].ID)
	})

	t.Run("newest first", func(t *testing.T) {
		events, _, err := svc.audit.List(ctx, &clientA.ID, "", 10, 0)
		require.NoError(t, err)
		require.NotEmpty(t, events)
		assert.Equal(t, EventRevoke, events[0].EventType)
	})
}
