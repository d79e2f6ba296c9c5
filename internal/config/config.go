package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Tasks     TaskConfig      `mapstructure:"tasks" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error fatal"`
	// GenerateRPS and GenerateBurst bound the on-demand generation endpoint.
	GenerateRPS   float64 `mapstructure:"generate_rps" validate:"gt=0"`
	GenerateBurst int     `mapstructure:"generate_burst" validate:"gte=1"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver selects the storage backend: "postgres" for the shared platform
	// database or "sqlite" for a single-node deployment.
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	// URL is a PostgreSQL connection URL or an SQLite file path.
	URL          string `mapstructure:"url" validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1,lte=200"`
}

// SchedulerConfig controls the daily batch sweep.
type SchedulerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// DailyAt is the local time of day, HH:MM, at which the sweep runs.
	DailyAt string `mapstructure:"daily_at" validate:"required,clock"`
	// Timezone is the IANA zone that defines "today" for the sweep.
	Timezone string `mapstructure:"timezone" validate:"required,timezone"`
	// Concurrency bounds how many templates are processed at once.
	Concurrency int `mapstructure:"concurrency" validate:"gte=1,lte=64"`
	// RunOnStartup runs today's sweep when the process starts, catching up a
	// nightly run that was missed while the process was down.
	RunOnStartup bool `mapstructure:"run_on_startup"`
}

// TaskConfig configures the background runner for on-demand generation jobs.
type TaskConfig struct {
	WorkerCount  int           `mapstructure:"worker_count" validate:"gte=1,lte=64"`
	QueueSize    int           `mapstructure:"queue_size" validate:"gte=1"`
	StuckTaskAge time.Duration `mapstructure:"stuck_task_age" validate:"gt=0"`
}
