package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate {up|down|status|version}",
		Short:     "Apply, roll back or inspect schema migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd.Context(), cc.cfg, cc.logger)
			if err != nil {
				return err
			}
			defer app.close()

			m, err := app.migrator()
			if err != nil {
				return err
			}
			return m.Run(cmd.Context(), args[0])
		},
	}
}
