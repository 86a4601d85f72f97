package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TruWeaveTrader/pairs-gym/internal/config"
	"github.com/TruWeaveTrader/pairs-gym/internal/env"
	"github.com/TruWeaveTrader/pairs-gym/internal/market"
	"github.com/TruWeaveTrader/pairs-gym/internal/models"
	"github.com/TruWeaveTrader/pairs-gym/internal/risk"
	"github.com/TruWeaveTrader/pairs-gym/internal/stats"
	"github.com/TruWeaveTrader/pairs-gym/pkg/formatters"
)

// rangeFlags adds --start/--end overrides for a command's date range
func rangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("start", "", "start date YYYY-MM-DD (overrides config)")
	cmd.Flags().String("end", "", "end date YYYY-MM-DD, exclusive (overrides config)")
}

// dateRange resolves the --start/--end flags against configured defaults
func dateRange(cmd *cobra.Command, start, end time.Time) (time.Time, time.Time, error) {
	if s, _ := cmd.Flags().GetString("start"); s != "" {
		parsed, err := config.ParseDate(s)
		if err != nil {
			return start, end, fmt.Errorf("--start: %w", err)
		}
		start = parsed
	}
	if s, _ := cmd.Flags().GetString("end"); s != "" {
		parsed, err := config.ParseDate(s)
		if err != nil {
			return start, end, fmt.Errorf("--end: %w", err)
		}
		end = parsed
	}
	if !end.After(start) {
		return start, end, fmt.Errorf("end %s must be after start %s", end.Format(config.DateLayout), start.Format(config.DateLayout))
	}
	return start, end, nil
}

// loadPair reads the configured pair from --data when given, otherwise from the API
func loadPair(ctx context.Context, cmd *cobra.Command, start, end time.Time) (*models.PairSeries, error) {
	if path, _ := cmd.Flags().GetString("data"); path != "" {
		all, err := market.ReadPairCSV(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		pair := market.Slice(all, start, end)
		logger.Info("pair read from file",
			zap.String("path", path),
			zap.String("pair", pair.SymbolA+"/"+pair.SymbolB),
			zap.Int("rows", pair.Len()))
		return pair, nil
	}

	if err := cfg.RequireCredentials(); err != nil {
		return nil, fmt.Errorf("%w (or pass --data)", err)
	}
	// API end dates are inclusive
	return loader.LoadPair(ctx, cfg.TickerA, cfg.TickerB, start, end.Add(-time.Nanosecond))
}

// reportPair warns when the pair fails the cointegration test. Training continues either way.
func reportPair(pair *models.PairSeries, result *stats.CointegrationResult) risk.CheckResult {
	if !result.IsCointegrated {
		logger.Warn("pair not cointegrated",
			zap.String("pair", pair.SymbolA+"/"+pair.SymbolB),
			zap.Float64("p_value", result.PValue),
			zap.Float64("significance", stats.SignificanceLevel))
	}

	check := riskManager.CheckPair(result)
	if !check.Passed || len(check.Warnings) > 0 {
		fmt.Println(formatters.FormatCheck("Pair", check))
	}
	return check
}

// pairSignal is the statistical view of a pair used to drive the environment
type pairSignal struct {
	records []stats.SpreadRecord
	beta    float64
}

// buildSignal derives the spread and z-score of a pair
func buildSignal(pair *models.PairSeries) (*pairSignal, error) {
	records, beta, err := stats.CalculateSpreadAndZScore(pair.A, pair.B)
	if err != nil {
		if errors.Is(err, stats.ErrZeroVariance) {
			return nil, fmt.Errorf("spread of %s/%s is constant, nothing to trade: %w", pair.SymbolA, pair.SymbolB, err)
		}
		return nil, fmt.Errorf("failed to compute spread: %w", err)
	}
	return &pairSignal{records: records, beta: beta}, nil
}

// buildEnvironment wires the configured reward shaping around a pair
func buildEnvironment(pair *models.PairSeries, sig *pairSignal) (*env.Environment, error) {
	rewards := env.DefaultRewardConfig()
	rewards.TransactionCost = cfg.TransactionCost
	rewards.HoldingCost = cfg.HoldingCost
	rewards.DrawdownPenalty = cfg.DrawdownPenalty

	return env.New(stats.ZScores(sig.records), pair.A, pair.B,
		env.WithInitialBalance(cfg.InitialBalance),
		env.WithRewardConfig(rewards))
}
