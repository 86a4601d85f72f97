package env

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// State is the mutable part of an episode
type State struct {
	Step        int      `json:"step"`
	Position    Position `json:"position"`
	Balance     float64  `json:"balance"`
	EntrySpread float64  `json:"entry_spread"`
}

// Outcome records what a transition did to the position
type Outcome struct {
	Opened bool    `json:"opened"`
	Closed bool    `json:"closed"`
	Profit float64 `json:"profit"`
}

// Transition applies one action at the given raw spread price (A - B).
//
//	EnterOrCloseLong  + Flat  -> Long, entry = price
//	EnterOrCloseLong  + Short -> Flat, profit = entry - price
//	EnterOrCloseShort + Flat  -> Short, entry = price
//	EnterOrCloseShort + Long  -> Flat, profit = price - entry
//
// Every other combination, and Hold, leaves the state untouched.
func Transition(s State, a Action, spreadPrice float64) (State, Outcome, error) {
	if !a.Valid() {
		return s, Outcome{}, fmt.Errorf("%w: %d", ErrInvalidAction, int(a))
	}

	var out Outcome
	switch {
	case a == EnterOrCloseLong && s.Position == Flat:
		s.Position = Long
		s.EntrySpread = spreadPrice
		out.Opened = true
	case a == EnterOrCloseLong && s.Position == Short:
		out.Profit = s.EntrySpread - spreadPrice
		out.Closed = true
	case a == EnterOrCloseShort && s.Position == Flat:
		s.Position = Short
		s.EntrySpread = spreadPrice
		out.Opened = true
	case a == EnterOrCloseShort && s.Position == Long:
		out.Profit = spreadPrice - s.EntrySpread
		out.Closed = true
	}

	if out.Closed {
		s.Balance += out.Profit
		s.Position = Flat
	}
	return s, out, nil
}

// RewardConfig holds the shaping constants
type RewardConfig struct {
	TransactionCost float64 `json:"transaction_cost"`
	HoldingCost     float64 `json:"holding_cost"`
	DrawdownPenalty float64 `json:"drawdown_penalty"`
	SharpeWindow    int     `json:"sharpe_window"`
	SharpeScale     float64 `json:"sharpe_scale"`
}

// DefaultRewardConfig returns the standard costs and Sharpe shaping
func DefaultRewardConfig() RewardConfig {
	return RewardConfig{
		TransactionCost: 0.5,
		HoldingCost:     0.01,
		DrawdownPenalty: 0.1,
		SharpeWindow:    20,
		SharpeScale:     0.1,
	}
}

// Shape computes the step reward. after is the state once the transition applied and
// history already includes its balance.
func (c RewardConfig) Shape(out Outcome, after State, initialBalance float64, history []float64) float64 {
	reward := 0.0
	// a close that broke even pays no fee
	if out.Closed && out.Profit != 0 {
		reward += out.Profit
		reward -= c.TransactionCost
	}
	if after.Position != Flat {
		reward -= c.HoldingCost
	}
	if after.Balance < initialBalance {
		reward -= c.DrawdownPenalty
	}
	return reward + c.SharpeBonus(history)
}

// SharpeBonus is mean/std of the balance changes over the trailing window, scaled.
// It is zero with fewer than two changes or a flat window.
func (c RewardConfig) SharpeBonus(history []float64) float64 {
	window := history
	if c.SharpeWindow > 0 && len(window) > c.SharpeWindow {
		window = window[len(window)-c.SharpeWindow:]
	}
	if len(window) < 3 {
		return 0
	}

	deltas := make([]float64, len(window)-1)
	for i := range deltas {
		deltas[i] = window[i+1] - window[i]
	}

	mean := stat.Mean(deltas, nil)
	std := popStdDev(deltas)
	if std <= 0 {
		return 0
	}
	return mean / std * c.SharpeScale
}

// popStdDev is the biased (divide by n) standard deviation
func popStdDev(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	_, variance := stat.MeanVariance(x, nil)
	n := float64(len(x))
	return math.Sqrt(variance * (n - 1) / n)
}
