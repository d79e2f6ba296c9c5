package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("task queue is closed")
	// ErrQueueFull is returned by Enqueue when the buffer has no room.
	ErrQueueFull = errors.New("task queue is full")
)

// TaskQueue is a bounded buffer between Submit and the runner's workers.
// Enqueue never blocks.
type TaskQueue struct {
	// mu guards closed and serialises Close against in-flight sends.
	mu     sync.RWMutex
	closed bool
	ch     chan Task
	logger *slog.Logger
}

// NewTaskQueue creates a queue holding at most size tasks. Sizes below 1 are
// raised to 1.
func NewTaskQueue(size int, logger *slog.Logger) *TaskQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskQueue{
		ch:     make(chan Task, max(size, 1)),
		logger: logger,
	}
}

// Enqueue buffers task for a worker.
func (q *TaskQueue) Enqueue(task Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.ch <- task:
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.ch))
	}

	q.logger.Debug("task enqueued",
		"task_id", task.ID(),
		"task_type", task.Type(),
		"queue_len", len(q.ch))
	return nil
}

// Close stops accepting tasks. Workers drain what is buffered and then see
// the channel closed. Repeated calls are no-ops.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
	q.logger.Info("task queue closed", "dropped_unstarted", len(q.ch))
}

// Tasks is the channel workers receive from.
func (q *TaskQueue) Tasks() <-chan Task {
	return q.ch
}

// Len reports how many tasks are buffered.
func (q *TaskQueue) Len() int {
	return len(q.ch)
}
