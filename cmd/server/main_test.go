package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/phrazzld/bizops-api/internal/domain"
	"github.com/phrazzld/bizops-api/internal/platform/sqlite"
	"github.com/phrazzld/bizops-api/internal/service/scheduling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a config file for a fresh SQLite database in a temp dir
// and returns the config and database paths.
func writeConfig(t *testing.T) (configPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "bizops.db")
	configPath = filepath.Join(dir, "config.yaml")

	content := fmt.Sprintf(`server:
  port: 8089
  log_level: error
database:
  driver: sqlite
  url: %s
scheduler:
  enabled: false
  daily_at: "02:00"
  timezone: UTC
  concurrency: 2
`, dbPath)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))
	return configPath, dbPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// seedDailyTemplate creates a user and a daily template starting on start.
func seedDailyTemplate(t *testing.T, dbPath string, start civil.Date, assignees ...uuid.UUID) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, dbPath)
	require.NoError(t, err)
	defer db.Close()

	users := sqlite.NewUserStore(db, nil)
	creator := uuid.New()
	require.NoError(t, users.Create(ctx, creator, "ops@example.com", "Ops"))
	if len(assignees) == 0 {
		assignees = []uuid.UUID{creator}
	}

	tmpl := &domain.TaskTemplate{
		ID:                 uuid.New(),
		RecurrenceType:     domain.RecurrenceDaily,
		RecurrenceInterval: 1,
		StartDate:          start,
		IsActive:           true,
		Title:              "Check the overnight queue",
		Status:             domain.TaskStatusTodo,
		Priority:           domain.PriorityMedium,
		AssigneeIDs:        assignees,
		CreatedByID:        creator,
	}
	require.NoError(t, sqlite.NewTemplateStore(db, nil).Create(ctx, tmpl))
	return tmpl.ID
}

func TestMigrateCommand(t *testing.T) {
	configPath, _ := writeConfig(t)

	_, err := execute(t, "--config", configPath, "migrate", "up")
	require.NoError(t, err)

	_, err = execute(t, "--config", configPath, "migrate", "version")
	require.NoError(t, err)

	_, err = execute(t, "--config", configPath, "migrate", "sideways")
	assert.Error(t, err)
}

func TestBatchCommand(t *testing.T) {
	configPath, dbPath := writeConfig(t)
	_, err := execute(t, "--config", configPath, "migrate", "up")
	require.NoError(t, err)

	seedDailyTemplate(t, dbPath, civil.Date{Year: 2025, Month: 3, Day: 1})

	out, err := execute(t, "--config", configPath, "batch", "--date", "2025-03-01")
	require.NoError(t, err)
	assert.Contains(t, out, "date=2025-03-01 considered=1 due=1 created=1 skipped=0 failed=0")

	// Re-running the same date generates nothing new.
	out, err = execute(t, "--config", configPath, "batch", "--date", "2025-03-01")
	require.NoError(t, err)
	assert.Contains(t, out, "created=0 skipped=1 failed=0")

	out, err = execute(t, "--config", configPath, "batch", "--date", "2025-03-02")
	require.NoError(t, err)
	assert.Contains(t, out, "created=1")
}

func TestBatchCommand_Failures(t *testing.T) {
	configPath, dbPath := writeConfig(t)
	_, err := execute(t, "--config", configPath, "migrate", "up")
	require.NoError(t, err)

	// The assignee does not exist, so materialization fails validation.
	id := seedDailyTemplate(t, dbPath, civil.Date{Year: 2025, Month: 3, Day: 1}, uuid.New())

	out, err := execute(t, "--config", configPath, "batch", "--date", "2025-03-01")
	require.ErrorIs(t, err, errBatchFailures)
	assert.Contains(t, out, "failed=1")
	assert.Contains(t, out, "failed template="+id.String())
}

func TestBatchCommand_InvalidDate(t *testing.T) {
	configPath, _ := writeConfig(t)

	_, err := execute(t, "--config", configPath, "batch", "--date", "14/03/2025")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --date")
}

func TestBatchCommand_FutureDate(t *testing.T) {
	configPath, _ := writeConfig(t)

	_, err := execute(t, "--config", configPath, "batch", "--date", "2999-01-01")
	require.Error(t, err)
	assert.ErrorIs(t, err, scheduling.ErrFutureDate)
}

func TestRootCommand_BadConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "batch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}
