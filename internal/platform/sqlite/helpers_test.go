package sqlite

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/phrazzld/bizops-api/internal/domain"
	"github.com/phrazzld/bizops-api/internal/platform/migrate"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestDB opens a fresh migrated database in a temp dir.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, filepath.Join(t.TempDir(), "bizops.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m, err := migrate.New(db, migrate.DriverSQLite, testLogger())
	require.NoError(t, err)
	require.NoError(t, m.Up(ctx))
	return db
}

func createUser(t *testing.T, users *UserStore) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, users.Create(context.Background(), id, id.String()+"@example.com", "Test User"))
	return id
}

func date(y, m, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}

func newTemplate(creator uuid.UUID, start civil.Date, assignees ...uuid.UUID) *domain.TaskTemplate {
	hours := 1.5
	return &domain.TaskTemplate{
		ID:                 uuid.New(),
		RecurrenceType:     domain.RecurrenceDaily,
		RecurrenceInterval: 1,
		StartDate:          start,
		IsActive:           true,
		Title:              "Daily standup notes",
		Description:        "Write up the standup",
		Status:             domain.TaskStatusTodo,
		Priority:           domain.PriorityHigh,
		AssigneeIDs:        assignees,
		Tags:               []string{"ops", "daily"},
		EstimatedHours:     &hours,
		CreatedByID:        creator,
	}
}
