package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/bizops-api/internal/config"
	"github.com/phrazzld/bizops-api/internal/platform/logger"
	"github.com/spf13/cobra"
)

// cliContext is shared by all commands: the loaded configuration and the
// process logger, both set up before any command runs.
type cliContext struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	cc := &cliContext{}

	root := &cobra.Command{
		Use:           "bizops-api",
		Short:         "Recurring task generation for the bizops platform",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return cc.load()
		},
	}
	root.PersistentFlags().StringVar(&cc.configPath, "config", "",
		"path to a config file (default: ./config.yaml if present)")

	root.AddCommand(
		newServeCmd(cc),
		newMigrateCmd(cc),
		newBatchCmd(cc),
	)
	return root
}

func (cc *cliContext) load() error {
	cfg, err := config.LoadFile(cc.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	cc.cfg = cfg
	cc.logger = log
	log.Debug("configuration loaded",
		"database_driver", cfg.Database.Driver,
		"scheduler_enabled", cfg.Scheduler.Enabled,
		"timezone", cfg.Scheduler.Timezone)
	return nil
}
