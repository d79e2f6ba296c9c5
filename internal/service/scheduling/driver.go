package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/phrazzld/bizops-api/internal/domain"
	"github.com/phrazzld/bizops-api/internal/domain/recurrence"
	"github.com/phrazzld/bizops-api/internal/generation"
	"github.com/phrazzld/bizops-api/internal/platform/logger"
	"github.com/phrazzld/bizops-api/internal/store"
	"golang.org/x/sync/errgroup"
)

// Materializer creates the task for a due template.
// *generation.Materializer is the production implementation.
type Materializer interface {
	Materialize(ctx context.Context, tmpl *domain.TaskTemplate, date civil.Date) (generation.Result, error)
}

// DriverConfig holds the driver's tunables.
type DriverConfig struct {
	// Concurrency bounds how many templates BatchRun processes at once.
	// Values below 1 are treated as 1.
	Concurrency int

	// Location is the timezone that defines today. Nil means UTC.
	Location *time.Location
}

// Driver runs the calculate, materialize, advance-watermark sequence for
// templates, either as a batch or one at a time.
type Driver struct {
	templates    store.TemplateStore
	calculator   recurrence.Calculator
	materializer Materializer
	concurrency  int
	loc          *time.Location
	now          func() time.Time
	logger       *slog.Logger
}

// NewDriver creates a Driver. It panics if a dependency is nil.
func NewDriver(
	templates store.TemplateStore,
	calculator recurrence.Calculator,
	materializer Materializer,
	cfg DriverConfig,
	logger *slog.Logger,
) *Driver {
	if templates == nil {
		panic("template store cannot be nil")
	}
	if calculator == nil {
		panic("recurrence calculator cannot be nil")
	}
	if materializer == nil {
		panic("materializer cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Driver{
		templates:    templates,
		calculator:   calculator,
		materializer: materializer,
		concurrency:  concurrency,
		loc:          loc,
		now:          time.Now,
		logger:       logger.With("component", "scheduler_driver"),
	}
}

type outcome string

const (
	outcomeCreated  outcome = "created"
	outcomeSkipped  outcome = "skipped"
	outcomeNotDue   outcome = "not_due"
	outcomeInactive outcome = "inactive"
	outcomeFailed   outcome = "failed"
)

// BatchRun processes every active template whose window contains today.
// today must not be later than the current date in the driver's timezone.
//
// Templates are handled in parallel, at most Concurrency at a time. A failing
// template is recorded in the report and does not affect the others. When ctx
// is cancelled no further templates are started; templates already started
// finish on a context detached from the cancellation. The only returned error
// is a failure to load the candidate templates.
func (d *Driver) BatchRun(ctx context.Context, today civil.Date) (*BatchReport, error) {
	if err := d.checkDate(today); err != nil {
		return nil, err
	}

	log := logger.FromContextOrDefault(ctx, d.logger).With("date", today.String())
	report := &BatchReport{Date: today, StartedAt: d.now()}

	templates, err := d.templates.FindDueTemplates(ctx, today)
	if err != nil {
		log.Error("failed to load candidate templates", "error", err)
		return nil, NewSchedulerError("batch_run", "failed to load candidate templates", err)
	}
	report.Considered = len(templates)
	log.Info("starting batch generation", "candidates", len(templates))

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(d.concurrency)

	for _, tmpl := range templates {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		unitCtx := context.WithoutCancel(ctx)
		g.Go(func() error {
			out, err := d.safeProcess(unitCtx, tmpl, today)

			mu.Lock()
			report.record(tmpl.ID, out, err)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = d.now()
	if report.Cancelled {
		log.Warn("batch generation cancelled before all templates were scheduled", "report", report)
	} else {
		log.Info("batch generation finished", "report", report)
	}
	return report, nil
}

// GenerateNow runs the generation sequence for a single template and reports
// whether a task was created. Inactive templates are never generated and
// dates after today are rejected with ErrFutureDate.
// Validation and persistence failures are returned as *generation.ValidationError
// and *generation.PersistenceError; the template's watermark is then unchanged.
func (d *Driver) GenerateNow(ctx context.Context, templateID uuid.UUID, date civil.Date) (bool, error) {
	if err := d.checkDate(date); err != nil {
		return false, err
	}

	tmpl, err := d.templates.GetByID(ctx, templateID)
	if err != nil {
		return false, NewSchedulerError("generate_now", "failed to load template", err)
	}

	out, err := d.safeProcess(ctx, tmpl, date)
	if err != nil {
		return false, err
	}
	return out == outcomeCreated, nil
}

// today is the current date in the driver's timezone.
func (d *Driver) today() civil.Date {
	return civil.DateOf(d.now().In(d.loc))
}

func (d *Driver) checkDate(date civil.Date) error {
	if !date.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidDate, date)
	}
	if date.After(d.today()) {
		return fmt.Errorf("%w: %s", ErrFutureDate, date)
	}
	return nil
}

// safeProcess is process with panic containment, so a single template can
// never take down a batch or a worker.
func (d *Driver) safeProcess(ctx context.Context, tmpl *domain.TaskTemplate, date civil.Date) (out outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = outcomeFailed
			err = fmt.Errorf("%w: %v", ErrUnitPanicked, r)
			d.logFailure(ctx, tmpl.ID, date, err)
		}
	}()
	return d.process(ctx, tmpl, date)
}

// process is the shared per-template sequence behind BatchRun and GenerateNow.
func (d *Driver) process(ctx context.Context, tmpl *domain.TaskTemplate, date civil.Date) (outcome, error) {
	log := logger.FromContextOrDefault(ctx, d.logger).With(
		"template_id", tmpl.ID,
		"date", date.String(),
	)

	if !tmpl.IsActive {
		log.Debug("template inactive, not generating")
		return outcomeInactive, nil
	}

	// The watermark is the last date that succeeded, so its task exists.
	if tmpl.LastGeneratedDate != nil && *tmpl.LastGeneratedDate == date {
		log.Debug("task already generated for date")
		return outcomeSkipped, nil
	}

	if !d.calculator.IsDue(tmpl, date) {
		log.Debug("template not due")
		return outcomeNotDue, nil
	}

	res, err := d.materializer.Materialize(ctx, tmpl, date)
	if err != nil {
		d.logFailure(ctx, tmpl.ID, date, err)
		return outcomeFailed, err
	}

	// A skip means some caller already created the task; advancing here
	// repairs a watermark left behind by a crash between insert and update.
	advanced, err := d.templates.AdvanceWatermark(ctx, tmpl.ID, date)
	if err != nil {
		log.Error("failed to advance watermark", "error", err, "outcome", res.Outcome)
	} else if advanced {
		log.Debug("watermark advanced")
	}

	if res.Created() {
		return outcomeCreated, nil
	}
	return outcomeSkipped, nil
}

func (d *Driver) logFailure(ctx context.Context, templateID uuid.UUID, date civil.Date, err error) {
	logger.FromContextOrDefault(ctx, d.logger).Error("template generation failed",
		"template_id", templateID,
		"date", date.String(),
		"error", err)
}
