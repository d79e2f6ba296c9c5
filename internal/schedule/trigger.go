package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/phrazzld/bizops-api/internal/config"
	"github.com/phrazzld/bizops-api/internal/service/scheduling"
	"github.com/robfig/cron/v3"
)

// BatchRunner runs one sweep for a date. *scheduling.Driver implements it.
type BatchRunner interface {
	BatchRun(ctx context.Context, today civil.Date) (*scheduling.BatchReport, error)
}

// DailyTrigger runs BatchRun once a day at a fixed local time.
type DailyTrigger struct {
	runner       BatchRunner
	loc          *time.Location
	spec         string
	runOnStartup bool

	cron    *cron.Cron
	entryID cron.EntryID
	job     cron.Job
	now     func() time.Time
	logger  *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDailyTrigger creates a trigger from the scheduler configuration.
// Nothing runs until Start is called.
func NewDailyTrigger(runner BatchRunner, cfg config.SchedulerConfig, logger *slog.Logger) (*DailyTrigger, error) {
	if runner == nil {
		return nil, fmt.Errorf("batch runner cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	hour, minute, err := config.ParseClock(cfg.DailyAt)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Timezone, err)
	}

	log := logger.With("component", "daily_trigger", "timezone", loc.String(), "daily_at", cfg.DailyAt)
	cl := cronLogger{log}

	ctx, cancel := context.WithCancel(context.Background())
	t := &DailyTrigger{
		runner:       runner,
		loc:          loc,
		spec:         fmt.Sprintf("%d %d * * *", minute, hour),
		runOnStartup: cfg.RunOnStartup,
		cron:         cron.New(cron.WithLocation(loc), cron.WithLogger(cl)),
		now:          time.Now,
		logger:       log,
		ctx:          ctx,
		cancel:       cancel,
	}

	// Scheduled and start-up runs share one wrapped job, so they never overlap.
	t.job = cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(t.fire))

	t.entryID, err = t.cron.AddJob(t.spec, t.job)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to schedule daily sweep: %w", err)
	}
	return t, nil
}

// Start starts the cron scheduler and, if configured, today's catch-up run.
func (t *DailyTrigger) Start() {
	t.cron.Start()
	t.logger.Info("daily trigger started", "next_run", t.Next())

	if t.runOnStartup {
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.job.Run()
		}()
	}
}

// Stop stops scheduling and waits for a running sweep to finish.
func (t *DailyTrigger) Stop() {
	t.stopOnce.Do(func() {
		t.cancel()
		<-t.cron.Stop().Done()
		t.wg.Wait()
		t.logger.Info("daily trigger stopped")
	})
}

// Next returns the time of the next scheduled sweep, or the zero time before
// Start.
func (t *DailyTrigger) Next() time.Time {
	return t.cron.Entry(t.entryID).Next
}

// Today returns the current date in the trigger's timezone.
func (t *DailyTrigger) Today() civil.Date {
	return civil.DateOf(t.now().In(t.loc))
}

// RunOnce runs the sweep for today in the trigger's timezone.
func (t *DailyTrigger) RunOnce(ctx context.Context) (*scheduling.BatchReport, error) {
	return t.runner.BatchRun(ctx, t.Today())
}

func (t *DailyTrigger) fire() {
	today := t.Today()
	t.logger.Info("daily sweep triggered", "date", today.String())

	report, err := t.runner.BatchRun(t.ctx, today)
	if err != nil {
		t.logger.Error("daily sweep failed", "date", today.String(), "error", err)
		return
	}
	if report.Failed > 0 {
		t.logger.Warn("daily sweep finished with failures", "report", report)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
