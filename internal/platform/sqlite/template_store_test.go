package sqlite

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/bizops-api/internal/domain"
	"github.com/phrazzld/bizops-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserStore(db, testLogger())
	templates := NewTemplateStore(db, testLogger())

	creator := createUser(t, users)
	assignee := createUser(t, users)
	end := date(2025, 12, 31)
	customer := uuid.New()

	tmpl := newTemplate(creator, date(2025, 1, 1), assignee)
	tmpl.EndDate = &end
	tmpl.CustomerID = &customer
	require.NoError(t, templates.Create(ctx, tmpl))

	got, err := templates.GetByID(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tmpl.ID, got.ID)
	assert.Equal(t, tmpl.RecurrenceType, got.RecurrenceType)
	assert.Equal(t, tmpl.StartDate, got.StartDate)
	require.NotNil(t, got.EndDate)
	assert.Equal(t, end, *got.EndDate)
	assert.True(t, got.IsActive)
	assert.Equal(t, []uuid.UUID{assignee}, got.AssigneeIDs)
	assert.Equal(t, []string{"ops", "daily"}, got.Tags)
	require.NotNil(t, got.CustomerID)
	assert.Equal(t, customer, *got.CustomerID)
	require.NotNil(t, got.EstimatedHours)
	assert.InDelta(t, 1.5, *got.EstimatedHours, 0.001)
	assert.Nil(t, got.LastGeneratedDate)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestTemplateStore_GetByIDNotFound(t *testing.T) {
	templates := NewTemplateStore(newTestDB(t), testLogger())

	_, err := templates.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrTemplateNotFound)
	assert.True(t, store.IsNotFoundError(err))
}

func TestTemplateStore_CreateRejectsInvalidTemplate(t *testing.T) {
	db := newTestDB(t)
	templates := NewTemplateStore(db, testLogger())
	creator := createUser(t, NewUserStore(db, testLogger()))

	tmpl := newTemplate(creator, date(2025, 1, 1))
	tmpl.RecurrenceInterval = 0

	err := templates.Create(context.Background(), tmpl)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestTemplateStore_FindDueTemplates(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	templates := NewTemplateStore(db, testLogger())
	creator := createUser(t, NewUserStore(db, testLogger()))

	open := newTemplate(creator, date(2025, 1, 1))
	future := newTemplate(creator, date(2025, 7, 1))
	ended := newTemplate(creator, date(2025, 1, 1))
	endedOn := date(2025, 5, 31)
	ended.EndDate = &endedOn
	endsToday := newTemplate(creator, date(2025, 1, 1))
	today := date(2025, 6, 1)
	endsToday.EndDate = &today
	inactive := newTemplate(creator, date(2025, 1, 1))
	inactive.IsActive = false

	for _, tmpl := range []*domain.TaskTemplate{open, future, ended, endsToday, inactive} {
		require.NoError(t, templates.Create(ctx, tmpl))
	}

	due, err := templates.FindDueTemplates(ctx, today)
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(due))
	for _, tmpl := range due {
		ids = append(ids, tmpl.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{open.ID, endsToday.ID}, ids)
	if len(ids) == 2 {
		assert.Less(t, ids[0].String(), ids[1].String(), "results are ordered by id")
	}

	none, err := templates.FindDueTemplates(ctx, date(2024, 1, 1))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestTemplateStore_AdvanceWatermark(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	templates := NewTemplateStore(db, testLogger())
	creator := createUser(t, NewUserStore(db, testLogger()))

	tmpl := newTemplate(creator, date(2025, 1, 1))
	require.NoError(t, templates.Create(ctx, tmpl))

	advanced, err := templates.AdvanceWatermark(ctx, tmpl.ID, date(2025, 1, 10))
	require.NoError(t, err)
	assert.True(t, advanced)

	advanced, err = templates.AdvanceWatermark(ctx, tmpl.ID, date(2025, 1, 5))
	require.NoError(t, err)
	assert.False(t, advanced, "watermark never moves backwards")

	advanced, err = templates.AdvanceWatermark(ctx, tmpl.ID, date(2025, 1, 10))
	require.NoError(t, err)
	assert.False(t, advanced, "same date is a no-op")

	got, err := templates.GetByID(ctx, tmpl.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastGeneratedDate)
	assert.Equal(t, date(2025, 1, 10), *got.LastGeneratedDate)

	advanced, err = templates.AdvanceWatermark(ctx, uuid.New(), date(2025, 1, 10))
	require.NoError(t, err)
	assert.False(t, advanced)
}

func TestTemplateStore_SetActive(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	templates := NewTemplateStore(db, testLogger())
	creator := createUser(t, NewUserStore(db, testLogger()))

	tmpl := newTemplate(creator, date(2025, 1, 1))
	require.NoError(t, templates.Create(ctx, tmpl))

	require.NoError(t, templates.SetActive(ctx, tmpl.ID, false))
	got, err := templates.GetByID(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	assert.ErrorIs(t, templates.SetActive(ctx, uuid.New(), true), store.ErrTemplateNotFound)
}

func TestNewTemplateStore_NilDB(t *testing.T) {
	assert.Panics(t, func() { NewTemplateStore(nil, testLogger()) })
}
