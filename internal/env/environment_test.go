package env

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatPair builds n bars where A - B equals spreads[i] and B is constant
func flatPair(spreads []float64) (z, a, b []float64) {
	n := len(spreads)
	z = make([]float64, n)
	a = make([]float64, n)
	b = make([]float64, n)
	for i, s := range spreads {
		z[i] = float64(i) / 10
		b[i] = 100
		a[i] = 100 + s
	}
	return z, a, b
}

func newTestEnv(t *testing.T, spreads []float64, opts ...Option) *Environment {
	t.Helper()
	z, a, b := flatPair(spreads)
	e, err := New(z, a, b, opts...)
	require.NoError(t, err)
	return e
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		z, a, b []float64
	}{
		{"length mismatch", []float64{0, 0, 0}, []float64{1, 2, 3}, []float64{1, 2}},
		{"too short", []float64{0, 0}, []float64{1, 2}, []float64{1, 2}},
		{"nan z-score", []float64{0, math.NaN(), 0}, []float64{1, 2, 3}, []float64{1, 2, 3}},
		{"inf price", []float64{0, 0, 0}, []float64{1, math.Inf(1), 3}, []float64{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.z, tt.a, tt.b)
			assert.ErrorIs(t, err, ErrSeriesMismatch)
		})
	}

	_, err := New([]float64{0, 0, 0}, []float64{1, 2, 3}, []float64{1, 2, 3}, WithInitialBalance(0))
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	e := newTestEnv(t, []float64{1, 2, 3, 4, 5}, WithInitialBalance(500))

	obs := e.Reset()
	assert.Equal(t, Observation{0, 0, 1, 0}, obs)
	assert.Equal(t, State{Step: 0, Position: Flat, Balance: 500}, e.State())
	assert.Equal(t, []float64{500}, e.PortfolioHistory())
	assert.False(t, e.Done())
}

func TestStep_BeforeReset(t *testing.T) {
	e := newTestEnv(t, []float64{1, 2, 3, 4})
	_, err := e.Step(Hold)
	assert.ErrorIs(t, err, ErrNotReset)
}

func TestStep_InvalidActionLeavesStateUntouched(t *testing.T) {
	e := newTestEnv(t, []float64{1, 2, 3, 4, 5, 6})
	e.Reset()

	for _, a := range []Action{-1, 3, 42} {
		_, err := e.Step(a)
		assert.ErrorIs(t, err, ErrInvalidAction)
	}
	assert.Equal(t, 0, e.State().Step)
	assert.Len(t, e.PortfolioHistory(), 1)
}

// Long at 5, hold, close at 8 two steps later
func TestStep_ScenarioLongRoundTrip(t *testing.T) {
	e := newTestEnv(t, []float64{0, 5, 6, 8, 8, 8, 8, 8, 8, 8})
	e.Reset()

	res, err := e.Step(EnterOrCloseLong)
	require.NoError(t, err)
	assert.Equal(t, Long, e.State().Position)
	assert.Equal(t, 5.0, e.State().EntrySpread)
	assert.InDelta(t, -0.01, res.Reward, 1e-12)
	assert.Equal(t, 1.0, res.Observation[1])

	res, err = e.Step(Hold)
	require.NoError(t, err)
	assert.InDelta(t, -0.01, res.Reward, 1e-12)

	res, err = e.Step(EnterOrCloseShort)
	require.NoError(t, err)
	assert.Equal(t, Flat, e.State().Position)
	assert.Equal(t, 10003.0, e.State().Balance)

	// deltas [0 0 3]: mean 1, population std sqrt(2)
	assert.InDelta(t, 3-0.5+0.1/math.Sqrt2, res.Reward, 1e-9)
	assert.InDelta(t, 1.0003, res.Observation[2], 1e-12)
	assert.False(t, res.Truncated)
	assert.NotNil(t, res.Info)
	assert.Empty(t, res.Info)
}

func TestStep_ShortRoundTripLoss(t *testing.T) {
	e := newTestEnv(t, []float64{0, 5, 6, 8, 8, 8, 8, 8, 8, 8})
	e.Reset()

	_, err := e.Step(EnterOrCloseShort)
	require.NoError(t, err)
	assert.Equal(t, Short, e.State().Position)

	_, err = e.Step(Hold)
	require.NoError(t, err)

	res, err := e.Step(EnterOrCloseLong)
	require.NoError(t, err)
	assert.Equal(t, 9997.0, e.State().Balance)
	assert.Equal(t, Flat, e.State().Position)

	// profit -3, cost 0.5, drawdown 0.1, deltas [0 0 -3]
	assert.InDelta(t, -3-0.5-0.1-0.1/math.Sqrt2, res.Reward, 1e-9)

	// still in drawdown while flat
	res, err = e.Step(Hold)
	require.NoError(t, err)
	assert.Less(t, res.Reward, 0.0)
}

func TestStep_SameDirectionIsNoOp(t *testing.T) {
	e := newTestEnv(t, []float64{0, 5, 9, 1, 1, 1})
	e.Reset()

	_, err := e.Step(EnterOrCloseLong)
	require.NoError(t, err)
	before := e.State()

	res, err := e.Step(EnterOrCloseLong)
	require.NoError(t, err)
	after := e.State()

	assert.Equal(t, Long, after.Position)
	assert.Equal(t, before.EntrySpread, after.EntrySpread)
	assert.Equal(t, before.Balance, after.Balance)
	assert.InDelta(t, -0.01, res.Reward, 1e-12)
}

func TestStep_BreakEvenCloseIsFree(t *testing.T) {
	e := newTestEnv(t, []float64{5, 5, 5, 5})
	e.Reset()

	res, err := e.Step(EnterOrCloseLong)
	require.NoError(t, err)
	assert.InDelta(t, -0.01, res.Reward, 1e-12)

	res, err = e.Step(EnterOrCloseShort)
	require.NoError(t, err)
	assert.Equal(t, Flat, e.State().Position)
	assert.Equal(t, DefaultInitialBalance, e.State().Balance)
	assert.InDelta(t, 0, res.Reward, 1e-12)
}

func TestStep_AfterDone(t *testing.T) {
	e := newTestEnv(t, []float64{1, 2, 3, 4, 5})
	e.Reset()

	steps := 0
	for {
		res, err := e.Step(Hold)
		require.NoError(t, err)
		steps++
		if res.Done {
			break
		}
	}

	// done once step reaches N-2
	assert.Equal(t, 3, steps)
	assert.Equal(t, 3, e.State().Step)
	assert.Len(t, e.PortfolioHistory(), steps+1)

	_, err := e.Step(Hold)
	assert.ErrorIs(t, err, ErrEpisodeDone)

	// a fresh episode is allowed
	e.Reset()
	_, err = e.Step(Hold)
	assert.NoError(t, err)
}

func TestStep_AllHoldKeepsBalance(t *testing.T) {
	spreads := make([]float64, 40)
	for i := range spreads {
		spreads[i] = math.Sin(float64(i))
	}
	e := newTestEnv(t, spreads)
	e.Reset()

	steps := 0
	for !e.Done() {
		res, err := e.Step(Hold)
		require.NoError(t, err)
		assert.Equal(t, 0.0, res.Reward)
		assert.Equal(t, 0.0, res.Observation[1])
		steps++
	}

	history := e.PortfolioHistory()
	assert.Len(t, history, steps+1)
	for _, v := range history {
		assert.Equal(t, DefaultInitialBalance, v)
	}
}

func TestStep_PositionAlwaysValid(t *testing.T) {
	spreads := make([]float64, 60)
	for i := range spreads {
		spreads[i] = float64(i % 7)
	}
	e := newTestEnv(t, spreads)
	e.Reset()

	actions := []Action{EnterOrCloseLong, Hold, EnterOrCloseShort, EnterOrCloseShort, EnterOrCloseLong, Hold}
	for i := 0; !e.Done(); i++ {
		res, err := e.Step(actions[i%len(actions)])
		require.NoError(t, err)
		assert.True(t, e.State().Position.Valid())
		assert.Contains(t, []float64{-1, 0, 1}, res.Observation[1])
	}
}

func TestObservation_Volatility(t *testing.T) {
	z := make([]float64, 10)
	a := make([]float64, 10)
	b := make([]float64, 10)
	for i := range z {
		z[i] = float64(i)
		a[i] = 1
		b[i] = 1
	}
	e, err := New(z, a, b)
	require.NoError(t, err)
	e.Reset()

	var res StepResult
	for i := 0; i < 5; i++ {
		res, err = e.Step(Hold)
		require.NoError(t, err)
	}
	assert.Equal(t, 5, e.State().Step)
	assert.Equal(t, 0.0, res.Observation.Volatility())

	res, err = e.Step(Hold)
	require.NoError(t, err)
	// population std of [1 2 3 4 5]
	assert.InDelta(t, math.Sqrt2, res.Observation.Volatility(), 1e-12)
	assert.Equal(t, 6.0, res.Observation.ZScore())
}

func TestNew_CopiesInput(t *testing.T) {
	z, a, b := flatPair([]float64{1, 2, 3, 4})
	e, err := New(z, a, b)
	require.NoError(t, err)

	a[1] = 1e9
	assert.Equal(t, 2.0, e.SpreadPrice(1))
}
