package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/peakform/coach-backend/internal/permissions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPermissionEnabledEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	server, testDB := newTestServer(t)
	admin := testDB.NewUser(t).AsAdmin().Create()
	params := map[string]string{"slug": permissions.ViewNutrition}

	t.Run("short reason is rejected", func(t *testing.T) {
		recorder := doRequest(t, server.SetPermissionEnabled, http.MethodPatch,
			"/admin/permissions/"+permissions.ViewNutrition+"/enabled",
			SetEnabledBody{Enabled: false, Reason: "short"}, admin, params)

		require.Equal(t, http.StatusBadRequest, recorder.Code)

		var response Error
		decodeResponse(t, recorder, &response)
		assert.Equal(t, CodeValidationError, response.Error.Code)
	})

	t.Run("disables the slug", func(t *testing.T) {
		recorder := doRequest(t, server.SetPermissionEnabled, http.MethodPatch,
			"/admin/permissions/"+permissions.ViewNutrition+"/enabled",
			SetEnabledBody{Enabled: false, Reason: "disabled for the data migration"}, admin, params)

		require.Equal(t, http.StatusOK, recorder.Code)

		var response PermissionDefinitionResponse
		decodeResponse(t, recorder, &response)
		assert.False(t, response.IsEnabled)
	})
}

func TestToggleExclusivityEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	server, testDB := newTestServer(t)
	ctx := context.Background()

	admin := testDB.NewUser(t).AsAdmin().Create()
	client := testDB.NewUser(t).AsClient().Create()
	relA := testDB.NewRelationship(t, client, testDB.NewUser(t).AsProfessional().Create()).Create()
	relB := testDB.NewRelationship(t, client, testDB.NewUser(t).AsProfessional().Create()).Create()

	grants := permissions.NewGrantService(testDB.Pool(), testDB.Queries(),
		permissions.NewAuditLogger(testDB.Queries()), permissions.Hooks{})
	_, err := grants.Grant(ctx, relA.ID, permissions.EditRoutines, permissions.GrantedByClient, permissions.ClientActor(client.ID))
	require.NoError(t, err)
	_, err = grants.Grant(ctx, relB.ID, permissions.EditRoutines, permissions.GrantedByClient, permissions.ClientActor(client.ID))
	require.NoError(t, err)

	params := map[string]string{"slug": permissions.EditRoutines}

	t.Run("conflicts block the toggle with context", func(t *testing.T) {
		recorder := doRequest(t, server.TogglePermissionExclusivity, http.MethodPatch,
			"/admin/permissions/"+permissions.EditRoutines+"/exclusivity",
			ToggleExclusivityBody{Exclusive: true, Reason: "routines need a single owner"}, admin, params)

		require.Equal(t, http.StatusBadRequest, recorder.Code)

		var response Error
		decodeResponse(t, recorder, &response)
		assert.Equal(t, CodeToggleConflict, response.Error.Code)
		require.NotNil(t, response.Error.Context)
		assert.EqualValues(t, 1, (*response.Error.Context)["conflictCount"])
		assert.Len(t, (*response.Error.Context)["affectedClients"], 1)
	})

	t.Run("force flips the definition anyway", func(t *testing.T) {
		recorder := doRequest(t, server.TogglePermissionExclusivity, http.MethodPatch,
			"/admin/permissions/"+permissions.EditRoutines+"/exclusivity",
			ToggleExclusivityBody{Exclusive: true, Force: true, Reason: "forced per support escalation"}, admin, params)

		require.Equal(t, http.StatusOK, recorder.Code)

		var response PermissionDefinitionResponse
		decodeResponse(t, recorder, &response)
		assert.True(t, response.IsExclusive)
	})

	t.Run("anomaly surfaces as multiple holders conflict", func(t *testing.T) {
		relC := testDB.NewRelationship(t, client, testDB.NewUser(t).AsProfessional().Create()).Create()
		recorder := doRequest(t, server.CreateGrant, http.MethodPost,
			"/relationships/"+relC.ID.String()+"/grants",
			CreateGrantRequest{PermissionSlug: permissions.EditRoutines}, client,
			map[string]string{"relationshipID": relC.ID.String()})

		require.Equal(t, http.StatusInternalServerError, recorder.Code)

		var response Error
		decodeResponse(t, recorder, &response)
		assert.Equal(t, CodeMultipleHolders, response.Error.Code)
	})

	t.Run("resolve duplicates recovers", func(t *testing.T) {
		recorder := doRequest(t, server.ResolveExclusiveDuplicates, http.MethodPost,
			"/admin/permissions/"+permissions.EditRoutines+"/resolve-duplicates",
			ResolveDuplicatesBody{
				ClientID:           client.ID,
				KeepRelationshipID: relA.ID,
				Reason:             "keeping the older coaching relationship",
			}, admin, params)

		require.Equal(t, http.StatusOK, recorder.Code)

		var response struct {
			Resolved        int      `json:"resolved"`
			WinnerPreserved string   `json:"winner_preserved"`
			RevokedFrom     []string `json:"revoked_from"`
		}
		decodeResponse(t, recorder, &response)
		assert.Equal(t, 1, response.Resolved)
		assert.Equal(t, relA.ID.String(), response.WinnerPreserved)
		assert.Equal(t, []string{relB.ID.String()}, response.RevokedFrom)
	})
}

func TestForceDisconnectEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	server, testDB := newTestServer(t)
	ctx := context.Background()

	admin := testDB.NewUser(t).AsAdmin().Create()
	client := testDB.NewUser(t).AsClient().Create()
	professional := testDB.NewUser(t).AsProfessional().Create()
	rel := testDB.NewRelationship(t, client, professional).Create()

	grants := permissions.NewGrantService(testDB.Pool(), testDB.Queries(),
		permissions.NewAuditLogger(testDB.Queries()), permissions.Hooks{})
	_, err := grants.Grant(ctx, rel.ID, permissions.ViewNutrition, permissions.GrantedByClient, permissions.ClientActor(client.ID))
	require.NoError(t, err)

	recorder := doRequest(t, server.ForceDisconnect, http.MethodDelete,
		"/admin/relationships/"+rel.ID.String(),
		ReasonBody{Reason: "client requested account separation"}, admin,
		map[string]string{"relationshipID": rel.ID.String()})

	require.Equal(t, http.StatusOK, recorder.Code)

	var response struct {
		RevokedGrants int `json:"revoked_grants"`
	}
	decodeResponse(t, recorder, &response)
	assert.Equal(t, 1, response.RevokedGrants)

	t.Run("second disconnect conflicts", func(t *testing.T) {
		recorder := doRequest(t, server.ForceDisconnect, http.MethodDelete,
			"/admin/relationships/"+rel.ID.String(),
			ReasonBody{Reason: "client requested account separation"}, admin,
			map[string]string{"relationshipID": rel.ID.String()})

		require.Equal(t, http.StatusConflict, recorder.Code)

		var response Error
		decodeResponse(t, recorder, &response)
		assert.Equal(t, CodeConflict, response.Error.Code)
	})
}
