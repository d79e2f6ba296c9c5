package scheduling

import (
	"context"
	"io"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/phrazzld/bizops-api/internal/domain"
	"github.com/phrazzld/bizops-api/internal/generation"
	"github.com/stretchr/testify/mock"
)

// MockTemplateStore mocks the store.TemplateStore interface
type MockTemplateStore struct {
	mock.Mock
}

func (m *MockTemplateStore) FindDueTemplates(ctx context.Context, today civil.Date) ([]*domain.TaskTemplate, error) {
	args := m.Called(ctx, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TaskTemplate), args.Error(1)
}

func (m *MockTemplateStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskTemplate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaskTemplate), args.Error(1)
}

func (m *MockTemplateStore) AdvanceWatermark(ctx context.Context, id uuid.UUID, date civil.Date) (bool, error) {
	args := m.Called(ctx, id, date)
	return args.Bool(0), args.Error(1)
}

// MockMaterializer mocks the Materializer interface
type MockMaterializer struct {
	mock.Mock
}

func (m *MockMaterializer) Materialize(ctx context.Context, tmpl *domain.TaskTemplate, date civil.Date) (generation.Result, error) {
	args := m.Called(ctx, tmpl, date)
	return args.Get(0).(generation.Result), args.Error(1)
}

// materializerFunc adapts a function to the Materializer interface.
type materializerFunc func(ctx context.Context, tmpl *domain.TaskTemplate, date civil.Date) (generation.Result, error)

func (f materializerFunc) Materialize(ctx context.Context, tmpl *domain.TaskTemplate, date civil.Date) (generation.Result, error) {
	return f(ctx, tmpl, date)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(y, m, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}

func dailyTemplate(start civil.Date) *domain.TaskTemplate {
	return &domain.TaskTemplate{
		ID:                 uuid.New(),
		RecurrenceType:     domain.RecurrenceDaily,
		RecurrenceInterval: 1,
		StartDate:          start,
		IsActive:           true,
		Title:              "Check the mailbox",
		CreatedByID:        uuid.New(),
	}
}

func created() generation.Result {
	return generation.Result{Outcome: generation.OutcomeCreated, TaskID: uuid.New()}
}
