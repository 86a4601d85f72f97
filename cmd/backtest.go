package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TruWeaveTrader/pairs-gym/internal/agent"
	"github.com/TruWeaveTrader/pairs-gym/internal/backtest"
	"github.com/TruWeaveTrader/pairs-gym/internal/models"
	"github.com/TruWeaveTrader/pairs-gym/internal/strategy"
	"github.com/TruWeaveTrader/pairs-gym/pkg/formatters"
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	rangeFlags(backtestCmd)
	backtestCmd.Flags().String("policy", "", "Q-table to evaluate (default POLICY_PATH)")
	backtestCmd.Flags().String("onnx", "", "evaluate an ONNX policy model instead of a Q-table")
	backtestCmd.Flags().String("onnx-lib", "", "path to the onnxruntime shared library")
	backtestCmd.Flags().String("onnx-input", "obs", "ONNX input tensor name")
	backtestCmd.Flags().String("onnx-output", "logits", "ONNX output tensor name")
	backtestCmd.Flags().Bool("baseline", false, "evaluate the rule-based z-score strategy")
	backtestCmd.Flags().String("out", "", "write the step ledger to a CSV file")
	backtestCmd.Flags().Int("trades", 20, "trades to show in the ledger table")
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay a policy over the test range",
	Long: `Recomputes the spread and z-score over the test range, plays one greedy
episode with the chosen policy and reports balance, drawdown, Sharpe and
the trades it made.`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	from, to, err := dateRange(cmd, cfg.TestStart, cfg.TestEnd)
	if err != nil {
		return err
	}

	policy, name, closer, err := choosePolicy(cmd)
	if err != nil {
		return err
	}
	defer closer()

	pair, err := loadPair(ctx, cmd, from, to)
	if err != nil {
		return fmt.Errorf("failed to load pair: %w", err)
	}

	trades, _ := cmd.Flags().GetInt("trades")
	out, _ := cmd.Flags().GetString("out")
	_, err = evaluate(pair, policy, name, trades, out)
	return err
}

// evaluate replays policy over pair and prints the summary, trades and risk checks.
// The ledger is written to out when it is set.
func evaluate(pair *models.PairSeries, policy agent.Policy, name string, trades int, out string) (*backtest.Result, error) {
	sig, err := buildSignal(pair)
	if err != nil {
		return nil, err
	}
	environment, err := buildEnvironment(pair, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to build environment: %w", err)
	}

	fmt.Printf("📊 Backtesting %s on %s/%s • %d bars • β=%.4f\n",
		name, pair.SymbolA, pair.SymbolB, pair.Len(), sig.beta)

	result, err := backtest.New(logger, pair.Timestamps).Run(environment, policy)
	if err != nil {
		return nil, fmt.Errorf("backtest failed: %w", err)
	}

	fmt.Println(formatters.FormatBacktestSummary(result.Summary))
	fmt.Println(formatters.FormatLedgerTable(result.Ledger, trades))

	fmt.Println(formatters.FormatCheck("Drawdown", riskManager.CheckDrawdown(result.PortfolioHistory)))
	fmt.Println(formatters.FormatCheck("Return", riskManager.CheckReturn(result.Summary.InitialBalance, result.Summary.FinalBalance)))

	if out != "" {
		if err := backtest.WriteLedgerCSV(out, result.Ledger); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", out, err)
		}
		fmt.Printf("💾 Ledger saved to %s\n", out)
	}

	return result, nil
}

// choosePolicy resolves the policy flags. The returned func releases any native resources.
func choosePolicy(cmd *cobra.Command) (agent.Policy, string, func(), error) {
	noop := func() {}

	if baseline, _ := cmd.Flags().GetBool("baseline"); baseline {
		policy, err := strategy.NewZScorePolicy(strategy.DefaultPairsTradingConfig())
		if err != nil {
			return nil, "", noop, err
		}
		return policy, "z-score baseline", noop, nil
	}

	if model, _ := cmd.Flags().GetString("onnx"); model != "" {
		lib, _ := cmd.Flags().GetString("onnx-lib")
		if err := agent.InitializeRuntime(lib); err != nil {
			return nil, "", noop, err
		}
		input, _ := cmd.Flags().GetString("onnx-input")
		output, _ := cmd.Flags().GetString("onnx-output")
		policy, err := agent.NewONNXPolicy(model, input, output)
		if err != nil {
			return nil, "", noop, fmt.Errorf("failed to load %s: %w", model, err)
		}
		return policy, model, policy.Close, nil
	}

	path := cfg.PolicyPath
	if p, _ := cmd.Flags().GetString("policy"); p != "" {
		path = p
	}
	learner, err := agent.LoadQLearner(path, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return nil, "", noop, fmt.Errorf("failed to load policy %s (run train first?): %w", path, err)
	}

	run, err := agent.ReadTrainingRun(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Debug("policy has no training manifest", zap.String("policy", path))
	case err != nil:
		logger.Warn("failed to read training manifest", zap.String("policy", path), zap.Error(err))
	case !run.SamePair(cfg.TickerA, cfg.TickerB):
		logger.Warn("policy was trained on a different pair",
			zap.String("trained", run.SymbolA+"/"+run.SymbolB),
			zap.String("configured", cfg.TickerA+"/"+cfg.TickerB))
	default:
		logger.Info("policy loaded",
			zap.String("policy", path),
			zap.String("trained", run.Start+" to "+run.End),
			zap.Int("episodes", run.Episodes))
	}

	return learner, path, noop, nil
}
