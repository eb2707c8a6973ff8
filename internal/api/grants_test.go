package api

import (
	"net/http"
	"testing"

	"github.com/peakform/coach-backend/internal/permissions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGrantEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	server, testDB := newTestServer(t)

	client := testDB.NewUser(t).AsClient().Create()
	professional := testDB.NewUser(t).AsProfessional().Create()
	rel := testDB.NewRelationship(t, client, professional).Create()
	params := map[string]string{"relationshipID": rel.ID.String()}

	t.Run("client grants a permission", func(t *testing.T) {
		recorder := doRequest(t, server.CreateGrant, http.MethodPost, "/relationships/"+rel.ID.String()+"/grants",
			CreateGrantRequest{PermissionSlug: permissions.ViewNutrition}, client, params)

		require.Equal(t, http.StatusCreated, recorder.Code)

		var response GrantResponse
		decodeResponse(t, recorder, &response)
		assert.Equal(t, permissions.ViewNutrition, response.PermissionSlug)
		assert.Equal(t, rel.ID, response.RelationshipID)
		assert.Nil(t, response.TransferredFrom)
	})

	t.Run("repeat grant returns 200", func(t *testing.T) {
		recorder := doRequest(t, server.CreateGrant, http.MethodPost, "/relationships/"+rel.ID.String()+"/grants",
			CreateGrantRequest{PermissionSlug: permissions.ViewNutrition}, client, params)
		require.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("professional may not grant", func(t *testing.T) {
		recorder := doRequest(t, server.CreateGrant, http.MethodPost, "/relationships/"+rel.ID.String()+"/grants",
			CreateGrantRequest{PermissionSlug: permissions.ViewCheckIns}, professional, params)

		require.Equal(t, http.StatusForbidden, recorder.Code)

		var response Error
		decodeResponse(t, recorder, &response)
		assert.Equal(t, CodePermissionDenied, response.Error.Code)
	})

	t.Run("stranger may not even see the relationship", func(t *testing.T) {
		stranger := testDB.NewUser(t).AsClient().Create()
		recorder := doRequest(t, server.CreateGrant, http.MethodPost, "/relationships/"+rel.ID.String()+"/grants",
			CreateGrantRequest{PermissionSlug: permissions.ViewCheckIns}, stranger, params)
		require.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("unknown slug maps to 404", func(t *testing.T) {
		recorder := doRequest(t, server.CreateGrant, http.MethodPost, "/relationships/"+rel.ID.String()+"/grants",
			CreateGrantRequest{PermissionSlug: "no_such_permission"}, client, params)

		require.Equal(t, http.StatusNotFound, recorder.Code)

		var response Error
		decodeResponse(t, recorder, &response)
		assert.Equal(t, CodeResourceNotFound, response.Error.Code)
	})

	t.Run("exclusive transfer is reported", func(t *testing.T) {
		otherCoach := testDB.NewUser(t).AsProfessional().Create()
		otherRel := testDB.NewRelationship(t, client, otherCoach).Create()

		first := doRequest(t, server.CreateGrant, http.MethodPost, "/relationships/"+rel.ID.String()+"/grants",
			CreateGrantRequest{PermissionSlug: permissions.SetNutritionTargets}, client, params)
		require.Equal(t, http.StatusCreated, first.Code)

		second := doRequest(t, server.CreateGrant, http.MethodPost, "/relationships/"+otherRel.ID.String()+"/grants",
			CreateGrantRequest{PermissionSlug: permissions.SetNutritionTargets}, client,
			map[string]string{"relationshipID": otherRel.ID.String()})
		require.Equal(t, http.StatusCreated, second.Code)

		var response GrantResponse
		decodeResponse(t, second, &response)
		require.NotNil(t, response.TransferredFrom)
		assert.Equal(t, rel.ID, *response.TransferredFrom)
	})
}

func TestRevokeGrantEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	server, testDB := newTestServer(t)

	client := testDB.NewUser(t).AsClient().Create()
	professional := testDB.NewUser(t).AsProfessional().Create()
	rel := testDB.NewRelationship(t, client, professional).Create()

	created := doRequest(t, server.CreateGrant, http.MethodPost, "/relationships/"+rel.ID.String()+"/grants",
		CreateGrantRequest{PermissionSlug: permissions.MessageClient}, client,
		map[string]string{"relationshipID": rel.ID.String()})
	require.Equal(t, http.StatusCreated, created.Code)

	// The professional may relinquish their own access
	recorder := doRequest(t, server.RevokeGrant, http.MethodDelete,
		"/relationships/"+rel.ID.String()+"/grants/"+permissions.MessageClient, nil, professional,
		map[string]string{"relationshipID": rel.ID.String(), "slug": permissions.MessageClient})
	require.Equal(t, http.StatusNoContent, recorder.Code)

	listed := doRequest(t, server.ListGrants, http.MethodGet, "/relationships/"+rel.ID.String()+"/grants",
		nil, client, map[string]string{"relationshipID": rel.ID.String()})
	require.Equal(t, http.StatusOK, listed.Code)

	// History endpoint keeps the revoked row visible
	var response struct {
		Data []GrantResponse `json:"data"`
	}
	decodeResponse(t, listed, &response)
	require.Len(t, response.Data, 1)
	assert.Equal(t, permissions.GrantStatusRevoked, response.Data[0].Status)
	assert.NotNil(t, response.Data[0].RevokedAt)
}
