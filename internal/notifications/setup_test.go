package notifications

import (
	"flag"
	"os"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/peakform/coach-backend/internal/testutil"
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

type enqueuedTask struct {
	TaskType string
	Data     interface{}
}

// recordingQueue captures enqueued tasks instead of touching redis.
type recordingQueue struct {
	tasks []enqueuedTask
}

func (q *recordingQueue) Enqueue(taskType string, data interface{}) (*asynq.TaskInfo, error) {
	q.tasks = append(q.tasks, enqueuedTask{TaskType: taskType, Data: data})
	return &asynq.TaskInfo{}, nil
}
