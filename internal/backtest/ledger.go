package backtest

import (
	"time"

	"github.com/TruWeaveTrader/pairs-gym/internal/env"
)

// LedgerRow is one row of per-step output.
// This is the primary artifact for "what happened" in a backtest.
type LedgerRow struct {
	Step int
	Time time.Time

	ZScore      float64
	SpreadPrice float64

	Action         env.Action
	PositionBefore env.Position
	PositionAfter  env.Position
	Closed         bool

	Balance   float64
	Reward    float64
	CumReward float64
}

type Result struct {
	Ledger           []LedgerRow
	PortfolioHistory []float64
	TotalReward      float64
	Summary          Summary
}
