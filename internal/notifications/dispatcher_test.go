package notifications

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/peakform/coach-backend/internal/permissions"
	"github.com/peakform/coach-backend/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := getSharedTestDatabase(t)
	ctx := context.Background()
	svc := NewNotificationService(testDB.Queries())

	user := testDB.NewUser(t).AsProfessional().Create()

	first, err := svc.Publish(ctx, user.ID, "permission_granted", map[string]string{"permission_slug": "view_nutrition"})
	require.NoError(t, err)
	_, err = svc.Publish(ctx, user.ID, "permission_revoked", map[string]string{"permission_slug": "view_nutrition"})
	require.NoError(t, err)

	unread, err := svc.GetUnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	listed, err := svc.GetUserNotifications(ctx, user.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 2)

	marked, err := svc.MarkAsRead(ctx, user.ID, first.ID)
	require.NoError(t, err)
	assert.True(t, marked.ReadAt.Valid)

	unread, err = svc.GetUnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	// A user cannot mark someone else's notification
	other := testDB.NewUser(t).AsProfessional().Create()
	_, err = svc.MarkAsRead(ctx, other.ID, first.ID)
	require.Error(t, err)
}

func TestDispatcherPublishGrant(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := getSharedTestDatabase(t)
	ctx := context.Background()

	templates, err := LoadTemplates("../../templates/email")
	require.NoError(t, err)

	q := &recordingQueue{}
	svc := NewNotificationService(testDB.Queries())
	dispatcher := NewNotificationDispatcher(svc, testDB.Queries(), q, templates,
		NewEmailLookupFunc(testDB.Queries()))

	client := testDB.NewUser(t).AsClient().Create()
	professional := testDB.NewUser(t).AsProfessional().Create()
	rel := testDB.NewRelationship(t, client, professional).Create()

	dispatcher.Publish(ctx, permissions.GrantEvent{
		Type:           permissions.EventGrant,
		ClientID:       client.ID,
		RelationshipID: rel.ID,
		PermissionSlug: permissions.ViewNutrition,
	})

	notifications, err := svc.GetUserNotifications(ctx, professional.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, permissions.EventGrant, notifications[0].EventType)

	var payload eventPayload
	require.NoError(t, json.Unmarshal(notifications[0].Payload, &payload))
	assert.Equal(t, permissions.ViewNutrition, payload.PermissionSlug)
	assert.Equal(t, rel.ID, payload.RelationshipID)

	require.Len(t, q.tasks, 1)
	assert.Equal(t, queue.TypeEmailDelivery, q.tasks[0].TaskType)
	email := q.tasks[0].Data.(queue.EmailDeliveryPayload)
	assert.Equal(t, professional.Email, email.To)
	assert.NotEmpty(t, email.Subject)
	assert.Contains(t, email.Body, permissions.ViewNutrition)
}

func TestDispatcherPublishTransferNotifiesLoser(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := getSharedTestDatabase(t)
	ctx := context.Background()

	templates, err := LoadTemplates("../../templates/email")
	require.NoError(t, err)

	q := &recordingQueue{}
	svc := NewNotificationService(testDB.Queries())
	dispatcher := NewNotificationDispatcher(svc, testDB.Queries(), q, templates,
		NewEmailLookupFunc(testDB.Queries()))

	client := testDB.NewUser(t).AsClient().Create()
	winner := testDB.NewUser(t).AsProfessional().Create()
	loser := testDB.NewUser(t).AsProfessional().Create()
	winnerRel := testDB.NewRelationship(t, client, winner).Create()
	loserRel := testDB.NewRelationship(t, client, loser).Create()

	dispatcher.Publish(ctx, permissions.GrantEvent{
		Type:            permissions.EventTransfer,
		ClientID:        client.ID,
		RelationshipID:  winnerRel.ID,
		PermissionSlug:  permissions.SetNutritionTargets,
		TransferredFrom: &loserRel.ID,
	})

	winnerNotifications, err := svc.GetUserNotifications(ctx, winner.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, winnerNotifications, 1)
	assert.Equal(t, permissions.EventTransfer, winnerNotifications[0].EventType)

	loserNotifications, err := svc.GetUserNotifications(ctx, loser.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, loserNotifications, 1)
	assert.Equal(t, "permission_transferred_away", loserNotifications[0].EventType)

	var payload eventPayload
	require.NoError(t, json.Unmarshal(loserNotifications[0].Payload, &payload))
	require.NotNil(t, payload.TransferredTo)
	assert.Equal(t, winnerRel.ID, *payload.TransferredTo)

	// One email each
	assert.Len(t, q.tasks, 2)
}
