package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/bizops-api/internal/api"
	"github.com/phrazzld/bizops-api/internal/config"
	"github.com/phrazzld/bizops-api/internal/domain/recurrence"
	"github.com/phrazzld/bizops-api/internal/events"
	"github.com/phrazzld/bizops-api/internal/generation"
	"github.com/phrazzld/bizops-api/internal/platform/migrate"
	"github.com/phrazzld/bizops-api/internal/platform/postgres"
	"github.com/phrazzld/bizops-api/internal/platform/sqlite"
	"github.com/phrazzld/bizops-api/internal/redact"
	"github.com/phrazzld/bizops-api/internal/schedule"
	"github.com/phrazzld/bizops-api/internal/service/scheduling"
	"github.com/phrazzld/bizops-api/internal/store"
	"github.com/phrazzld/bizops-api/internal/task"
)

// stuckTaskCheckInterval is how often the runner looks for jobs stuck in processing.
const stuckTaskCheckInterval = 5 * time.Minute

// application holds the wired dependencies shared by the commands.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	templates      store.TemplateStore
	users          store.UserStore
	generatedTasks store.GeneratedTaskStore
	jobs           task.TaskStore

	driver  *scheduling.Driver
	emitter *events.InMemoryEventEmitter
	runner  *task.TaskRunner
	trigger *schedule.DailyTrigger
}

// newApplication opens the configured database and wires the engine on top
// of it. Nothing is started; callers start the runner and trigger they need.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := openDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	app := &application{config: cfg, logger: logger, db: db}

	switch cfg.Database.Driver {
	case migrate.DriverSQLite:
		app.templates = sqlite.NewTemplateStore(db, logger)
		app.users = sqlite.NewUserStore(db, logger)
		app.generatedTasks = sqlite.NewGeneratedTaskStore(db, logger)
		app.jobs = sqlite.NewJobStore(db, logger)
	default:
		app.templates = postgres.NewPostgresTemplateStore(db, logger)
		app.users = postgres.NewPostgresUserStore(db, logger)
		app.generatedTasks = postgres.NewPostgresGeneratedTaskStore(db, logger)
		app.jobs = postgres.NewPostgresJobStore(db, logger)
	}

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Scheduler.Timezone, err)
	}

	materializer := generation.NewMaterializer(app.users, app.generatedTasks, logger)
	app.driver = scheduling.NewDriver(
		app.templates,
		recurrence.NewCalculator(recurrence.Gregorian{}),
		materializer,
		scheduling.DriverConfig{Concurrency: cfg.Scheduler.Concurrency, Location: loc},
		logger,
	)

	factory := task.NewGenerationTaskFactory(app.driver, logger)
	app.runner = task.NewTaskRunner(app.jobs, factory, task.TaskRunnerConfig{
		WorkerCount:            cfg.Tasks.WorkerCount,
		QueueSize:              cfg.Tasks.QueueSize,
		StuckTaskAge:           cfg.Tasks.StuckTaskAge,
		StuckTaskCheckInterval: stuckTaskCheckInterval,
	}, logger)

	app.emitter = events.NewInMemoryEventEmitter(logger)
	app.emitter.RegisterHandler(task.NewGenerationEventHandler(factory, app.runner, logger))

	app.trigger, err = schedule.NewDailyTrigger(app.driver, cfg.Scheduler, logger)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("failed to create daily trigger: %w", err)
	}

	return app, nil
}

// router builds the HTTP handler. Requests without a target date generate
// for today in the scheduler's timezone.
func (app *application) router() http.Handler {
	return api.NewRouter(
		api.NewHealthHandler(app.db),
		api.NewGenerationHandler(app.driver, app.emitter, app.trigger.Today, app.logger),
		api.RouterConfig{
			GenerateRPS:   app.config.Server.GenerateRPS,
			GenerateBurst: app.config.Server.GenerateBurst,
		},
		app.logger,
	)
}

func (app *application) migrator() (*migrate.Migrator, error) {
	return migrate.New(app.db, app.config.Database.Driver, app.logger)
}

func (app *application) close() {
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database", "error", err)
	}
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	log := logger.With("driver", cfg.Driver, "url", redact.DSN(cfg.URL))

	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case migrate.DriverSQLite:
		db, err = sqlite.Open(ctx, cfg.URL)
	case migrate.DriverPostgres:
		db, err = postgres.Open(ctx, cfg.URL, cfg.MaxOpenConns)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		log.Error("failed to open database", "error", redact.Error(err))
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	log.Info("database connection established")
	return db, nil
}
