package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sawpanic/capitolflow/internal/metrics"
	"github.com/sawpanic/capitolflow/internal/report"
	"github.com/sawpanic/capitolflow/internal/schedule"
)

func newScheduleCmd(log zerolog.Logger) *cobra.Command {
	var cronSpec string
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the ETL + scoring pipeline on a cron schedule, serving /metrics",
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

			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			go func() {
				if err := http.ListenAndServe(metricsAddr, mux); err != nil {
					a.log.Error().Err(err).Msg("metrics server stopped")
				}
			}()

			sched := schedule.New(ctx, a.log)
			_, err = sched.AddJob(cronSpec, schedule.Job{
				Name: "etl+score",
				Run: func(ctx context.Context) error {
					orch, sources, err := a.buildOrchestrator(flagChambers)
					if err != nil {
						return err
					}
					started := time.Now()
					summaries := orch.Run(ctx, sources, flagDays)
					rr := report.RunReport{StartedAt: started, Duration: time.Since(started), Summaries: summaries}
					rr.Render(cmd.OutOrStdout())

					sqsScorer, sqsWriter, tradeReader, conv, ranker := a.buildScorers()
					trades, err := tradeReader.AllCanonical(ctx)
					if err != nil {
						return err
					}
					for _, t := range trades {
						if err := sqsWriter.Upsert(ctx, sqsScorer.Score(ctx, t)); err != nil {
							return err
						}
					}
					if _, err := conv.Run(ctx); err != nil {
						return err
					}
					if _, err := ranker.Run(ctx); err != nil {
						return err
					}
					gen, _ := a.buildSignalStages(nil)
					if _, err := gen.Run(ctx); err != nil {
						return err
					}
					_, sigReader := a.store.Signals()
					guardrails, err := a.runGuardrailBacktest(ctx, tradeReader, sigReader)
					if err != nil {
						return err
					}
					_, enh := a.buildSignalStages(guardrails)
					if _, err := enh.Run(ctx); err != nil {
						return err
					}
					return nil
				},
			})
			if err != nil {
				return err
			}
			sched.Start()
			<-ctx.Done()
			sched.Stop()
			return nil
		},
	}
	cmd.Flags().StringVar(&cronSpec, "cron", "0 0 */6 * * *", "cron expression (seconds-enabled) for the combined ETL+scoring run")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "address to serve /metrics on")
	cmd.Flags().IntVar(&flagDays, "days", 1, "lookback window in days for each scheduled run")
	cmd.Flags().StringSliceVar(&flagChambers, "chambers", nil, "chambers to run (senate,house); default both")
	return cmd
}
