package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	_ "time/tzdata" // scheduler.timezone must resolve on hosts without zoneinfo

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. BIZOPS_DATABASE_URL for database.url.
const EnvPrefix = "BIZOPS"

// Load configuration from environment variables and optionally a config.yaml
// in the working directory. Environment variables take precedence over values
// from config files. Returns a populated Config or an error if loading or
// validation fails.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path. An empty path searches
// for config.yaml in the working directory and tolerates its absence.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its validate tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.RegisterValidation("clock", validateClock); err != nil {
		return fmt.Errorf("failed to register clock validation: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.generate_rps", 5.0)
	v.SetDefault("server.generate_burst", 10)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.daily_at", "02:00")
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("scheduler.concurrency", 4)
	v.SetDefault("scheduler.run_on_startup", true)

	v.SetDefault("tasks.worker_count", 2)
	v.SetDefault("tasks.queue_size", 100)
	v.SetDefault("tasks.stuck_task_age", "30m")
}

// validateClock accepts a 24-hour HH:MM string.
func validateClock(fl validator.FieldLevel) bool {
	_, _, err := ParseClock(fl.Field().String())
	return err == nil
}

// ParseClock splits an HH:MM string into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}
