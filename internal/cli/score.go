package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newScoreCmd(log zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Run SQS scoring, convergence detection, politician ranking, and signal generation",
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

			sqsScorer, sqsWriter, tradeReader, conv, ranker := a.buildScorers()

			trades, err := tradeReader.AllCanonical(ctx)
			if err != nil {
				return fmt.Errorf("load canonical trades: %w", err)
			}
			for _, t := range trades {
				rec := sqsScorer.Score(ctx, t)
				if err := sqsWriter.Upsert(ctx, rec); err != nil {
					return fmt.Errorf("upsert sqs record for %s: %w", t.DataHash, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scored %d trades\n", len(trades))

			events, err := conv.Run(ctx)
			if err != nil {
				return fmt.Errorf("run convergence detector: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "detected %d convergence events\n", len(events))

			rankings, err := ranker.Run(ctx)
			if err != nil {
				return fmt.Errorf("run politician ranker: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ranked %d politicians\n", len(rankings))

			// Build with a nil guardrail lookup first, since the backtest's
			// hit-rate statistic needs this run's freshly generated
			// AlphaSignal rows to mean anything.
			gen, _ := a.buildSignalStages(nil)
			signals, err := gen.Run(ctx)
			if err != nil {
				return fmt.Errorf("generate signals: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generated %d alpha signals\n", len(signals))

			_, sigReader := a.store.Signals()
			guardrails, err := a.runGuardrailBacktest(ctx, tradeReader, sigReader)
			if err != nil {
				return fmt.Errorf("run guardrail backtest: %w", err)
			}
			_, enh := a.buildSignalStages(guardrails)

			enhanced, err := enh.Run(ctx)
			if err != nil {
				return fmt.Errorf("enhance signals: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enhanced %d signals\n", len(enhanced))
			return nil
		},
	}
	return cmd
}
