package cli

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sawpanic/capitolflow/internal/report"
)

func newETLCmd(log zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "etl",
		Short: "Fetch, transform, and load disclosures for the lookback window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := bootstrap(ctx, log)
			if err != nil {
				return err
			}
			defer a.store.Close()

			orch, sources, err := a.buildOrchestrator(flagChambers)
			if err != nil {
				return err
			}

			started := time.Now()
			summaries := orch.Run(ctx, sources, flagDays)
			rr := report.RunReport{StartedAt: started, Duration: time.Since(started), Summaries: summaries}
			rr.Render(cmd.OutOrStdout())
			if !rr.OK() {
				return errETLDegraded
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&flagDays, "days", 30, "lookback window in days")
	cmd.Flags().StringSliceVar(&flagChambers, "chambers", nil, "chambers to run (senate,house); default both")
	return cmd
}

var errETLDegraded = etlDegradedError{}

type etlDegradedError struct{}

func (etlDegradedError) Error() string { return "etl run completed with one or more chamber failures" }
