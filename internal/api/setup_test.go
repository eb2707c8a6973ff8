package api

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/peakform/coach-backend/generated/db"
	"github.com/peakform/coach-backend/internal/config"
	"github.com/peakform/coach-backend/internal/database"
	"github.com/peakform/coach-backend/internal/notifications"
	"github.com/peakform/coach-backend/internal/permissions"
	"github.com/peakform/coach-backend/internal/testutil"
	"github.com/stretchr/testify/require"
)

var sharedTestDB *testutil.TestDatabase

// TestMain runs once before all tests
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	sharedTestDB = testutil.NewTestDatabase(&testing.T{})
	sharedTestDB.RunMigrations(&testing.T{})

	code := m.Run()

	if sharedTestDB.Pool() != nil {
		sharedTestDB.Pool().Close()
	}

	os.Exit(code)
}

// getSharedTestDatabase returns the shared test database with clean tables
func getSharedTestDatabase(t *testing.T) *testutil.TestDatabase {
	sharedTestDB.CleanupDatabase(t)
	return sharedTestDB
}

func newTestServer(t *testing.T) (*Server, *testutil.TestDatabase) {
	testDB := getSharedTestDatabase(t)
	wrapped := database.NewFromPool(testDB.Pool())

	audit := permissions.NewAuditLogger(testDB.Queries())
	grants := permissions.NewGrantService(testDB.Pool(), testDB.Queries(), audit, permissions.Hooks{})
	registry := permissions.NewRegistry(testDB.Pool(), testDB.Queries(), audit)
	requests := permissions.NewRequestService(testDB.Pool(), testDB.Queries(), grants, audit, permissions.Hooks{}, 14*24*time.Hour)
	presets := permissions.NewPresetService(testDB.Pool(), testDB.Queries(), grants, audit)
	admin := permissions.NewAdminService(testDB.Pool(), testDB.Queries(), grants, presets, audit, permissions.Hooks{})
	notificationSvc := notifications.NewNotificationService(testDB.Queries())

	server := NewServer(wrapped, registry, grants, requests, presets, admin, audit,
		notificationSvc, nil, &config.CORSConfig{})
	return server, testDB
}

// doRequest calls a handler directly with the user injected the way the auth
// middleware would and any URL params on the chi route context.
func doRequest(t *testing.T, handler http.HandlerFunc, method, target string, body any, user db.User, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	ctx := testutil.ContextWithUser(req.Context(), user)

	routeCtx := chi.NewRouteContext()
	for name, value := range params {
		routeCtx.URLParams.Add(name, value)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)

	recorder := httptest.NewRecorder()
	handler(recorder, req.WithContext(ctx))
	return recorder
}

func decodeResponse(t *testing.T, recorder *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(dst))
}
