package permissions_test

import (
	"flag"
	. "github.com/peakform/coach-backend/internal/permissions"

	"os"
	"testing"
	"time"

	"github.com/peakform/coach-backend/internal/testutil"
)

const testRequestTTL = 14 * 24 * time.Hour

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

type testServices struct {
	db          *testutil.TestDatabase
	audit       *AuditLogger
	grants      *GrantService
	registry    *Registry
	requests    *RequestService
	presets     *PresetService
	admin       *AdminService
	invalidator *testutil.RecordingInvalidator
	publisher   *testutil.RecordingPublisher
}

func newTestServices(t *testing.T) *testServices {
	testDB := getSharedTestDatabase(t)

	invalidator := &testutil.RecordingInvalidator{}
	publisher := &testutil.RecordingPublisher{}
	hooks := Hooks{Cache: invalidator, Events: publisher}

	audit := NewAuditLogger(testDB.Queries())
	grants := NewGrantService(testDB.Pool(), testDB.Queries(), audit, hooks)
	registry := NewRegistry(testDB.Pool(), testDB.Queries(), audit)
	requests := NewRequestService(testDB.Pool(), testDB.Queries(), grants, audit, hooks, testRequestTTL)
	presets := NewPresetService(testDB.Pool(), testDB.Queries(), grants, audit)
	admin := NewAdminService(testDB.Pool(), testDB.Queries(), grants, presets, audit, hooks)

	return &testServices{
		db:          testDB,
		audit:       audit,
		grants:      grants,
		registry:    registry,
		requests:    requests,
		presets:     presets,
		admin:       admin,
		invalidator: invalidator,
		publisher:   publisher,
	}
}
