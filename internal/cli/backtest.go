package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newBacktestCmd(log zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run the event-study backtest over canonical trades and report guardrail status",
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

			_, tradeReader := a.store.Trades()
			_, sigReader := a.store.Signals()

			trades, err := tradeReader.AllCanonical(ctx)
			if err != nil {
				return fmt.Errorf("load canonical trades: %w", err)
			}

			bt := a.buildBacktester()
			batch, err := bt.Run(ctx, trades, sigReader)
			if err != nil {
				return fmt.Errorf("run backtest: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "backtested %d trades (%d excluded)\n", len(batch.Results), len(batch.Excluded))
			fmt.Fprintf(out, "mean CAR20D=%.4f hit_rate=%.2f welch_p=%.4f sample=%d\n",
				batch.Guardrails.MeanCAR20D, batch.Guardrails.HitRate, batch.Guardrails.WelchPValue, batch.Guardrails.SampleSize)
			if batch.ReviewRequired {
				fmt.Fprintf(out, "REVIEW REQUIRED: %v\n", batch.Guardrails.Reasons)
			}
			return nil
		},
	}
	return cmd
}
