package generation

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/phrazzld/bizops-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockUserStore mocks the store.UserStore interface
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockGeneratedTaskStore mocks the store.GeneratedTaskStore interface
type MockGeneratedTaskStore struct {
	mock.Mock
}

func (m *MockGeneratedTaskStore) ExistsForDate(ctx context.Context, templateID uuid.UUID, date civil.Date) (bool, error) {
	args := m.Called(ctx, templateID, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockGeneratedTaskStore) InsertGeneratedTask(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}
