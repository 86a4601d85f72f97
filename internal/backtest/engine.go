// Package backtest replays a policy over a trading environment and reports
// what it did.
package backtest

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TruWeaveTrader/pairs-gym/internal/agent"
	"github.com/TruWeaveTrader/pairs-gym/internal/env"
)

type Engine struct {
	logger     *zap.Logger
	timestamps []time.Time
}

// New creates an engine. timestamps label ledger rows when they cover every bar.
func New(logger *zap.Logger, timestamps []time.Time) *Engine {
	return &Engine{
		logger:     logger.With(zap.String("component", "backtest")),
		timestamps: timestamps,
	}
}

// Run plays one episode greedily from reset until done.
func (e *Engine) Run(environment *env.Environment, policy agent.Policy) (*Result, error) {
	if environment == nil {
		return nil, fmt.Errorf("environment is nil")
	}
	if policy == nil {
		return nil, fmt.Errorf("policy is nil")
	}

	labelled := len(e.timestamps) == environment.Len()
	ledger := make([]LedgerRow, 0, environment.Len())
	cum := 0.0

	obs := environment.Reset()
	for {
		before := environment.State()

		action, err := policy.Predict(obs)
		if err != nil {
			return nil, fmt.Errorf("step %d predict: %w", before.Step+1, err)
		}

		res, err := environment.Step(action)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", before.Step+1, err)
		}
		after := environment.State()
		cum += res.Reward

		row := LedgerRow{
			Step: after.Step,

			ZScore:      res.Observation.ZScore(),
			SpreadPrice: environment.SpreadPrice(after.Step),

			Action:         action,
			PositionBefore: before.Position,
			PositionAfter:  after.Position,
			Closed:         before.Position != env.Flat && after.Position == env.Flat,

			Balance:   after.Balance,
			Reward:    res.Reward,
			CumReward: cum,
		}
		if labelled {
			row.Time = e.timestamps[after.Step]
		}
		ledger = append(ledger, row)

		if row.Closed {
			e.logger.Debug("position closed",
				zap.Int("step", row.Step),
				zap.String("side", before.Position.String()),
				zap.Float64("pnl", after.Balance-before.Balance),
				zap.Float64("balance", after.Balance))
		}

		obs = res.Observation
		if res.Done || res.Truncated {
			break
		}
	}

	history := environment.PortfolioHistory()
	summary := Summarize(history, ledger)

	e.logger.Info("backtest finished",
		zap.Int("steps", len(ledger)),
		zap.Int("trades", summary.Trades),
		zap.Float64("final_balance", summary.FinalBalance),
		zap.Float64("total_return", summary.TotalReturn),
		zap.Float64("max_drawdown", summary.MaxDrawdown))

	return &Result{
		Ledger:           ledger,
		PortfolioHistory: history,
		TotalReward:      cum,
		Summary:          summary,
	}, nil
}
