package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/civil"
	"github.com/phrazzld/bizops-api/internal/service/scheduling"
	"github.com/spf13/cobra"
)

// errBatchFailures is returned when a sweep completed but some templates failed.
var errBatchFailures = errors.New("batch finished with failures")

func newBatchCmd(cc *cliContext) *cobra.Command {
	var dateFlag string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run one generation sweep and exit",
		Long: `Runs the same sweep as the daily trigger once, for today in the
scheduler timezone or for --date. Safe to repeat: dates that already have a
task are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd.Context(), cc, dateFlag, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&dateFlag, "date", "", "date to generate for, YYYY-MM-DD (default: today)")
	return cmd
}

func runBatch(ctx context.Context, cc *cliContext, dateFlag string, out io.Writer) error {
	app, err := newApplication(ctx, cc.cfg, cc.logger)
	if err != nil {
		return err
	}
	defer app.close()

	date := app.trigger.Today()
	if dateFlag != "" {
		if date, err = civil.ParseDate(dateFlag); err != nil {
			return fmt.Errorf("invalid --date %q: %w", dateFlag, err)
		}
	}

	report, err := app.driver.BatchRun(ctx, date)
	if err != nil {
		return err
	}

	printReport(out, report)
	if report.Failed > 0 {
		return fmt.Errorf("%w: %d of %d templates", errBatchFailures, report.Failed, report.Considered)
	}
	return nil
}

func printReport(out io.Writer, r *scheduling.BatchReport) {
	fmt.Fprintf(out, "date=%s considered=%d due=%d created=%d skipped=%d failed=%d\n",
		r.Date, r.Considered, r.Due(), r.Created, r.Skipped, r.Failed)
	for _, f := range r.Failures {
		fmt.Fprintf(out, "failed template=%s error=%v\n", f.TemplateID, f.Err)
	}
}
