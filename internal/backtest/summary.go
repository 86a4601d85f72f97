package backtest

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualises the per-step Sharpe ratio of daily bars
const TradingDaysPerYear = 252

// Summary holds the headline numbers of a run
type Summary struct {
	Steps          int     `json:"steps"`
	Trades         int     `json:"trades"`
	Wins           int     `json:"wins"`
	InitialBalance float64 `json:"initial_balance"`
	FinalBalance   float64 `json:"final_balance"`
	TotalReturn    float64 `json:"total_return"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	Sharpe         float64 `json:"sharpe"`
}

// WinRate is the share of closed trades that made money
func (s Summary) WinRate() float64 {
	if s.Trades == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Trades)
}

// Summarize computes run metrics from the portfolio history and ledger
func Summarize(history []float64, ledger []LedgerRow) Summary {
	s := Summary{Steps: len(ledger)}
	if len(history) == 0 {
		return s
	}

	s.InitialBalance = history[0]
	s.FinalBalance = history[len(history)-1]
	if s.InitialBalance != 0 {
		s.TotalReturn = s.FinalBalance/s.InitialBalance - 1
	}
	s.MaxDrawdown = MaxDrawdown(history)
	s.Sharpe = Sharpe(history, TradingDaysPerYear)

	prev := s.InitialBalance
	for _, r := range ledger {
		if r.Closed {
			s.Trades++
			if r.Balance > prev {
				s.Wins++
			}
		}
		prev = r.Balance
	}
	return s
}

// MaxDrawdown is the largest peak-to-trough fall as a fraction of the peak
func MaxDrawdown(history []float64) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, v := range history {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// Sharpe is the annualised mean over sample std of simple per-step returns.
// It is zero when there are fewer than two returns or they do not vary.
func Sharpe(history []float64, periodsPerYear float64) float64 {
	if len(history) < 3 {
		return 0
	}
	returns := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		if history[i-1] == 0 {
			return 0
		}
		returns = append(returns, history[i]/history[i-1]-1)
	}

	mean, std := stat.MeanStdDev(returns, nil)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return mean / std * math.Sqrt(periodsPerYear)
}
