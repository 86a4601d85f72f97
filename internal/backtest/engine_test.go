package backtest

import (
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/TruWeaveTrader/pairs-gym/internal/env"
	"github.com/TruWeaveTrader/pairs-gym/internal/strategy"
)

// scripted replays a fixed action list and then holds
type scripted struct {
	actions []env.Action
	i       int
}

func (s *scripted) Predict(env.Observation) (env.Action, error) {
	if s.i >= len(s.actions) {
		return env.Hold, nil
	}
	a := s.actions[s.i]
	s.i++
	return a, nil
}

type failing struct{}

func (failing) Predict(env.Observation) (env.Action, error) {
	return env.Hold, errors.New("boom")
}

func newEnv(t *testing.T, spreads []float64) *env.Environment {
	t.Helper()
	n := len(spreads)
	z := make([]float64, n)
	a := make([]float64, n)
	b := make([]float64, n)
	for i, s := range spreads {
		z[i] = s - 5
		a[i] = 50 + s
		b[i] = 50
	}
	e, err := env.New(z, a, b, env.WithInitialBalance(1000))
	require.NoError(t, err)
	return e
}

func TestEngine_Run(t *testing.T) {
	e := newEnv(t, []float64{5, 4, 6, 7, 3, 2, 5, 5})
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stamps := make([]time.Time, e.Len())
	for i := range stamps {
		stamps[i] = start.AddDate(0, 0, i)
	}

	policy := &scripted{actions: []env.Action{
		env.EnterOrCloseLong,  // step 1: long at 4
		env.Hold,              // step 2
		env.EnterOrCloseShort, // step 3: close at 7, +3
		env.EnterOrCloseShort, // step 4: short at 3
		env.EnterOrCloseLong,  // step 5: close at 2, +1
	}}

	res, err := New(zaptest.NewLogger(t), stamps).Run(e, policy)
	require.NoError(t, err)

	// done at step N-2
	require.Len(t, res.Ledger, e.Len()-2)
	assert.Len(t, res.PortfolioHistory, len(res.Ledger)+1)

	assert.Equal(t, env.Long, res.Ledger[0].PositionAfter)
	assert.Equal(t, 4.0, res.Ledger[0].SpreadPrice)
	assert.Equal(t, stamps[1], res.Ledger[0].Time)
	assert.True(t, res.Ledger[2].Closed)
	assert.Equal(t, 1003.0, res.Ledger[2].Balance)
	assert.True(t, res.Ledger[4].Closed)
	assert.Equal(t, 1004.0, res.Ledger[4].Balance)

	s := res.Summary
	assert.Equal(t, 2, s.Trades)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 1.0, s.WinRate())
	assert.Equal(t, 1000.0, s.InitialBalance)
	assert.Equal(t, 1004.0, s.FinalBalance)
	assert.InDelta(t, 0.004, s.TotalReturn, 1e-12)
	assert.Equal(t, 0.0, s.MaxDrawdown)

	last := res.Ledger[len(res.Ledger)-1]
	assert.InDelta(t, res.TotalReward, last.CumReward, 1e-12)
}

func TestEngine_RunWithBaseline(t *testing.T) {
	spreads := make([]float64, 200)
	for i := range spreads {
		spreads[i] = 5 + 3*math.Sin(float64(i)/5)
	}
	e := newEnv(t, spreads)

	policy, err := strategy.NewZScorePolicy(strategy.DefaultPairsTradingConfig())
	require.NoError(t, err)

	res, err := New(zaptest.NewLogger(t), nil).Run(e, policy)
	require.NoError(t, err)

	assert.Greater(t, res.Summary.Trades, 0)
	assert.True(t, res.Ledger[0].Time.IsZero())
	for _, r := range res.Ledger {
		assert.True(t, r.PositionAfter.Valid())
	}
}

func TestEngine_RunErrors(t *testing.T) {
	engine := New(zaptest.NewLogger(t), nil)

	_, err := engine.Run(nil, &scripted{})
	assert.Error(t, err)

	_, err = engine.Run(newEnv(t, []float64{1, 2, 3}), nil)
	assert.Error(t, err)

	_, err = engine.Run(newEnv(t, []float64{1, 2, 3, 4}), failing{})
	assert.Error(t, err)

	_, err = engine.Run(newEnv(t, []float64{1, 2, 3, 4}), &scripted{actions: []env.Action{9}})
	assert.ErrorIs(t, err, env.ErrInvalidAction)
}

func TestMaxDrawdown(t *testing.T) {
	assert.Equal(t, 0.0, MaxDrawdown(nil))
	assert.Equal(t, 0.0, MaxDrawdown([]float64{100, 101, 102}))
	assert.InDelta(t, 0.25, MaxDrawdown([]float64{100, 120, 90, 110, 95}), 1e-12)
}

func TestSharpe(t *testing.T) {
	assert.Equal(t, 0.0, Sharpe([]float64{100, 101}, 252))
	assert.Equal(t, 0.0, Sharpe([]float64{100, 100, 100}, 252))

	// returns alternate +10% and -10%
	history := []float64{100, 110, 99, 108.9}
	r := []float64{0.1, -0.1, 0.1}
	mean := (r[0] + r[1] + r[2]) / 3
	variance := 0.0
	for _, v := range r {
		variance += (v - mean) * (v - mean)
	}
	std := math.Sqrt(variance / 2)
	assert.InDelta(t, mean/std*math.Sqrt(252), Sharpe(history, 252), 1e-9)
}

func TestWriteLedgerCSV(t *testing.T) {
	ledger := []LedgerRow{
		{Step: 1, Time: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), ZScore: -2.5, SpreadPrice: 4, Action: env.EnterOrCloseLong, PositionAfter: env.Long, Balance: 1000, Reward: -0.01, CumReward: -0.01},
		{Step: 2, ZScore: 0.7, SpreadPrice: 7, Action: env.EnterOrCloseShort, PositionBefore: env.Long, Closed: true, Balance: 1003, Reward: 2.49, CumReward: 2.48},
	}

	path := filepath.Join(t.TempDir(), "ledger.csv")
	require.NoError(t, WriteLedgerCSV(path, ledger))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "step", rows[0][0])
	assert.Equal(t, []string{"1", "2024-02-01T00:00:00Z", "-2.500000", "4.000000", "LONG_SPREAD", "FLAT", "LONG", "false", "1000.000000", "-0.010000", "-0.010000"}, rows[1])
	assert.Equal(t, "", rows[2][1])
	assert.Equal(t, "true", rows[2][7])
}
