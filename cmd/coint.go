package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TruWeaveTrader/pairs-gym/internal/stats"
	"github.com/TruWeaveTrader/pairs-gym/pkg/formatters"
)

func init() {
	rootCmd.AddCommand(cointCmd)
	rangeFlags(cointCmd)
}

var cointCmd = &cobra.Command{
	Use:   "coint",
	Short: "Run the Engle-Granger cointegration test on the pair",
	Long: `Regresses TICKER_A on TICKER_B over the training range, tests the
residuals for a unit root and reports the p-value, critical values and
hedge ratio.`,
	Args: cobra.NoArgs,
	RunE: runCoint,
}

func runCoint(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	from, to, err := dateRange(cmd, cfg.TrainStart, cfg.TrainEnd)
	if err != nil {
		return err
	}

	pair, err := loadPair(ctx, cmd, from, to)
	if err != nil {
		return fmt.Errorf("failed to load pair: %w", err)
	}

	result, err := stats.CheckCointegration(pair.A, pair.B)
	if err != nil {
		return fmt.Errorf("cointegration test failed: %w", err)
	}
	logger.Info("cointegration tested",
		zap.String("pair", pair.SymbolA+"/"+pair.SymbolB),
		zap.Float64("p_value", result.PValue),
		zap.Float64("hedge_ratio", result.HedgeRatio))

	fmt.Println(formatters.FormatCointegration(pair.SymbolA, pair.SymbolB, result))
	fmt.Println(formatters.FormatCheck("Pair", riskManager.CheckPair(result)))

	return nil
}
