package task

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// MockTask is a simple implementation of the Task interface for testing
type MockTask struct {
	TaskID      uuid.UUID
	TaskType    string
	TaskPayload []byte
	TaskStatus  TaskStatus
	ExecuteFn   func(ctx context.Context) error
}

// NewMockTask creates a new MockTask with the given ID and type
func NewMockTask(id uuid.UUID, taskType string, payload []byte) *MockTask {
	return &MockTask{
		TaskID:      id,
		TaskType:    taskType,
		TaskPayload: payload,
		TaskStatus:  TaskStatusPending,
		ExecuteFn:   func(ctx context.Context) error { return nil },
	}
}

func (t *MockTask) ID() uuid.UUID                     { return t.TaskID }
func (t *MockTask) Type() string                      { return t.TaskType }
func (t *MockTask) Payload() []byte                   { return t.TaskPayload }
func (t *MockTask) Status() TaskStatus                { return t.TaskStatus }
func (t *MockTask) Execute(ctx context.Context) error { return t.ExecuteFn(ctx) }

// CreateMockTaskWithPayload creates a MockTask with a small JSON payload
func CreateMockTaskWithPayload(message string) *MockTask {
	data, _ := json.Marshal(map[string]string{"message": message})
	return NewMockTask(uuid.New(), "mock_task", data)
}

// MockTaskStore implements the TaskStore interface in memory
type MockTaskStore struct {
	mutex   sync.RWMutex
	records map[uuid.UUID]*Record
	order   []uuid.UUID

	SaveFn func(ctx context.Context, task Task) error
}

// NewMockTaskStore creates a new MockTaskStore with default implementations
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{records: make(map[uuid.UUID]*Record)}
}

func (s *MockTaskStore) SaveTask(ctx context.Context, task Task) error {
	if s.SaveFn != nil {
		if err := s.SaveFn(ctx, task); err != nil {
			return err
		}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	now := time.Now()
	s.records[task.ID()] = &Record{
		ID:        task.ID(),
		Type:      task.Type(),
		Payload:   task.Payload(),
		Status:    TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.order = append(s.order, task.ID())
	return nil
}

// put stores a record directly, as if left behind by a previous process.
func (s *MockTaskStore) put(rec Record) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	r := rec
	s.records[rec.ID] = &r
	s.order = append(s.order, rec.ID)
}

func (s *MockTaskStore) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	rec, ok := s.records[taskID]
	if !ok {
		return nil
	}
	rec.Status = status
	rec.ErrorMessage = errorMsg
	rec.UpdatedAt = time.Now()
	return nil
}

func (s *MockTaskStore) GetPendingTasks(ctx context.Context) ([]Record, error) {
	return s.byStatus(TaskStatusPending, 0), nil
}

func (s *MockTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Record, error) {
	return s.byStatus(TaskStatusProcessing, olderThan), nil
}

func (s *MockTaskStore) byStatus(status TaskStatus, olderThan time.Duration) []Record {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	var out []Record
	for _, id := range s.order {
		rec := s.records[id]
		if rec.Status != status {
			continue
		}
		if olderThan > 0 && time.Since(rec.UpdatedAt) <= olderThan {
			continue
		}
		out = append(out, *rec)
	}
	return out
}

// StatusOf returns the stored status of a task.
func (s *MockTaskStore) StatusOf(id uuid.UUID) (TaskStatus, string) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return "", ""
	}
	return rec.Status, rec.ErrorMessage
}

// mockRebuilder returns registered tasks by id.
type mockRebuilder struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]Task
}

func newMockRebuilder(tasks ...Task) *mockRebuilder {
	r := &mockRebuilder{tasks: make(map[uuid.UUID]Task)}
	for _, t := range tasks {
		r.tasks[t.ID()] = t
	}
	return r
}

func (r *mockRebuilder) Rebuild(rec Record) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[rec.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskType, rec.Type)
	}
	return t, nil
}

// MockGenerator records GenerateNow calls.
type MockGenerator struct {
	mu      sync.Mutex
	Calls   []generationPayload
	Created bool
	Err     error
	Done    chan struct{}
}

func (g *MockGenerator) GenerateNow(ctx context.Context, templateID uuid.UUID, date civil.Date) (bool, error) {
	g.mu.Lock()
	g.Calls = append(g.Calls, generationPayload{TemplateID: templateID, TargetDate: date})
	g.mu.Unlock()
	if g.Done != nil {
		g.Done <- struct{}{}
	}
	return g.Created, g.Err
}

func (g *MockGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Calls)
}
