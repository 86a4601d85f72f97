package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TruWeaveTrader/pairs-gym/internal/strategy"
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Int("episodes", 0, "training episodes (overrides TRAIN_EPISODES)")
	runCmd.Flags().Int64("seed", 0, "random seed (overrides SEED)")
	runCmd.Flags().String("policy", "", "where to save the policy (overrides POLICY_PATH)")
	runCmd.Flags().Bool("baseline", false, "also backtest the rule-based z-score strategy")
	runCmd.Flags().String("out", "", "write the step ledger of the trained policy to a CSV file")
	runCmd.Flags().Int("trades", 20, "trades to show in the ledger table")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Train on the training range, then backtest on the test range",
	Long: `Fetches the pair once over both ranges, trains a Q-table on the training
window and replays it over the test window. Both windows are served from the
same cached bars.`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if path, _ := cmd.Flags().GetString("data"); path == "" {
		if err := cfg.RequireCredentials(); err != nil {
			return fmt.Errorf("%w (or pass --data)", err)
		}
		start, end := spanOf(cfg.TrainStart, cfg.TrainEnd, cfg.TestStart, cfg.TestEnd)
		if err := loader.Prefetch(ctx, cfg.TickerA, cfg.TickerB, start, end.Add(-time.Nanosecond)); err != nil {
			return fmt.Errorf("failed to fetch pair: %w", err)
		}
	}

	trainPair, err := loadPair(ctx, cmd, cfg.TrainStart, cfg.TrainEnd)
	if err != nil {
		return fmt.Errorf("failed to load training window: %w", err)
	}
	learner, err := trainAndSave(ctx, trainPair, trainOptionsFromFlags(cmd, cfg.TrainStart, cfg.TrainEnd))
	if err != nil {
		return err
	}

	testPair, err := loadPair(ctx, cmd, cfg.TestStart, cfg.TestEnd)
	if err != nil {
		return fmt.Errorf("failed to load test window: %w", err)
	}

	trades, _ := cmd.Flags().GetInt("trades")
	out, _ := cmd.Flags().GetString("out")
	if _, err := evaluate(testPair, learner, "q-table", trades, out); err != nil {
		return err
	}

	if baseline, _ := cmd.Flags().GetBool("baseline"); baseline {
		policy, err := strategy.NewZScorePolicy(strategy.DefaultPairsTradingConfig())
		if err != nil {
			return err
		}
		if _, err := evaluate(testPair, policy, "z-score baseline", trades, ""); err != nil {
			return err
		}
	}

	usage := dataCache.GetStats()
	logger.Debug("cache usage",
		zap.Int("bar_sets", usage.BarSetCount),
		zap.Int("pairs", usage.PairCount))

	return nil
}

// spanOf returns the smallest range covering both [aStart, aEnd) and [bStart, bEnd)
func spanOf(aStart, aEnd, bStart, bEnd time.Time) (time.Time, time.Time) {
	start, end := aStart, aEnd
	if bStart.Before(start) {
		start = bStart
	}
	if bEnd.After(end) {
		end = bEnd
	}
	return start, end
}
