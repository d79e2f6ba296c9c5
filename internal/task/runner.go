package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/bizops-api/internal/platform/logger"
)

// TaskRunnerConfig tunes the worker pool and the stuck-task monitor.
type TaskRunnerConfig struct {
	WorkerCount int
	QueueSize   int

	// StuckTaskAge is how long a task may stay processing before the
	// monitor resets it to pending.
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defaults to 5 minutes when zero.
	StuckTaskCheckInterval time.Duration
}

// DefaultTaskRunnerConfig returns the configuration used when none is given.
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// TaskRunner persists submitted tasks and executes them on a worker pool.
type TaskRunner struct {
	store     TaskStore
	rebuilder Rebuilder
	queue     *TaskQueue
	config    TaskRunnerConfig
	logger    *slog.Logger

	onFailure func(task Task, err error)

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewTaskRunner creates a TaskRunner. rebuilder restores tasks found in the
// store at start-up.
func NewTaskRunner(store TaskStore, rebuilder Rebuilder, config TaskRunnerConfig, log *slog.Logger) *TaskRunner {
	if config.StuckTaskCheckInterval <= 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}
	if config.WorkerCount < 1 {
		config.WorkerCount = 1
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "task_runner")

	ctx, cancel := context.WithCancel(context.Background())
	return &TaskRunner{
		store:     store,
		rebuilder: rebuilder,
		queue:     NewTaskQueue(config.QueueSize, log),
		config:    config,
		logger:    log,
		onFailure: func(Task, error) {},
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SetErrorHandler registers a callback invoked after a task fails.
// It runs on the worker goroutine.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	if handler == nil {
		handler = func(Task, error) {}
	}
	r.onFailure = handler
}

// Submit persists the task and queues it for execution. A task that was
// saved but could not be queued stays pending and is picked up on the next
// start.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	if err := r.queue.Enqueue(task); err != nil {
		return fmt.Errorf("queue task: %w", err)
	}
	return nil
}

// Start recovers unfinished tasks, then launches the workers and the
// stuck-task monitor.
func (r *TaskRunner) Start() error {
	if err := r.Recover(r.ctx); err != nil {
		return fmt.Errorf("recover tasks: %w", err)
	}

	r.wg.Add(r.config.WorkerCount + 1)
	for id := range r.config.WorkerCount {
		go r.work(id)
	}
	go r.monitor()

	r.logger.Info("task runner started", "worker_count", r.config.WorkerCount)
	return nil
}

// Stop lets each worker finish its current task and waits for them.
// Queued tasks remain pending in the store. Stop may be called more than once.
func (r *TaskRunner) Stop() {
	r.stopOnce.Do(func() {
		r.cancel()
		r.wg.Wait()
		r.queue.Close()
		r.logger.Info("task runner stopped")
	})
}

// Recover queues every pending task again. Tasks interrupted while
// processing are reset to pending first.
func (r *TaskRunner) Recover(ctx context.Context) error {
	pending, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("load pending tasks: %w", err)
	}
	interrupted, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("load processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		"pending_count", len(pending),
		"processing_count", len(interrupted))

	for _, rec := range pending {
		r.requeue(ctx, rec)
	}
	r.resetAndRequeue(ctx, interrupted, "reset after recovery")
	return nil
}

func (r *TaskRunner) resetAndRequeue(ctx context.Context, recs []Record, reason string) {
	for _, rec := range recs {
		if err := r.store.UpdateTaskStatus(ctx, rec.ID, TaskStatusPending, reason); err != nil {
			r.logger.Error("failed to reset task to pending",
				"task_id", rec.ID, "task_type", rec.Type, "error", err)
			continue
		}
		r.requeue(ctx, rec)
	}
}

// requeue rebuilds rec and puts it on the queue. Records that cannot be
// rebuilt are marked failed so they are not retried forever.
func (r *TaskRunner) requeue(ctx context.Context, rec Record) {
	log := r.logger.With("task_id", rec.ID, "task_type", rec.Type)

	task, err := r.rebuilder.Rebuild(rec)
	if err != nil {
		log.Error("failed to rebuild stored task", "error", err)
		r.setStatus(ctx, log, rec.ID, TaskStatusFailed, err.Error())
		return
	}
	if err := r.queue.Enqueue(task); err != nil {
		log.Error("failed to requeue task", "error", err)
		return
	}
	log.Debug("requeued task")
}

func (r *TaskRunner) work(id int) {
	defer r.wg.Done()

	tasks := r.queue.Tasks()
	for {
		select {
		case <-r.ctx.Done():
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}
			r.run(task, id)
		}
	}
}

// run drives one task through processing to completed or failed.
func (r *TaskRunner) run(task Task, workerID int) {
	log := r.logger.With("task_id", task.ID(), "task_type", task.Type(), "worker_id", workerID)
	// Execution outlives Stop so a started task is never cut off halfway.
	ctx := logger.WithLogger(context.WithoutCancel(r.ctx), log)

	if !r.setStatus(ctx, log, task.ID(), TaskStatusProcessing, "") {
		return
	}

	started := time.Now()
	if err := r.execute(ctx, task); err != nil {
		log.Error("task execution failed", "error", err, "elapsed", time.Since(started))
		r.setStatus(ctx, log, task.ID(), TaskStatusFailed, err.Error())
		r.onFailure(task, err)
		return
	}

	log.Info("task completed", "elapsed", time.Since(started))
	r.setStatus(ctx, log, task.ID(), TaskStatusCompleted, "")
}

func (r *TaskRunner) setStatus(ctx context.Context, log *slog.Logger, id uuid.UUID, status TaskStatus, msg string) bool {
	if err := r.store.UpdateTaskStatus(ctx, id, status, msg); err != nil {
		log.Error("failed to update task status", "status", status, "error", err)
		return false
	}
	return true
}

// execute runs task, converting a panic into an error.
func (r *TaskRunner) execute(ctx context.Context, task Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()
	return task.Execute(ctx)
}

func (r *TaskRunner) monitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.resetStuckTasks(r.ctx)
		}
	}
}

func (r *TaskRunner) resetStuckTasks(ctx context.Context) {
	stuck, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
	if err != nil {
		r.logger.Error("failed to check for stuck tasks", "error", err)
		return
	}
	if len(stuck) > 0 {
		r.logger.Warn("resetting stuck tasks", "count", len(stuck))
		r.resetAndRequeue(ctx, stuck, "reset after being stuck in processing state")
	}
}
