// Package env is a step-driven pairs-trading simulator. An agent trades the raw
// price difference of two assets while observing the standardized spread.
package env

import (
	"fmt"
	"math"
)

const (
	// DefaultInitialBalance is the starting cash of every episode
	DefaultInitialBalance = 10000.0

	// MinSeriesLength is the shortest series that yields at least one step
	MinSeriesLength = 3

	volatilityWindow = 5
)

// Environment holds one episode at a time. It is not safe for concurrent use.
type Environment struct {
	zScores []float64
	pricesA []float64
	pricesB []float64

	initialBalance float64
	rewards        RewardConfig

	state   State
	history []float64
	started bool
	done    bool
}

// Option configures an Environment
type Option func(*Environment)

// WithInitialBalance sets the starting balance
func WithInitialBalance(balance float64) Option {
	return func(e *Environment) {
		e.initialBalance = balance
	}
}

// WithRewardConfig replaces the reward shaping constants
func WithRewardConfig(cfg RewardConfig) Option {
	return func(e *Environment) {
		e.rewards = cfg
	}
}

// New creates an environment over aligned z-score and price series.
// The slices are copied.
func New(zScores, pricesA, pricesB []float64, opts ...Option) (*Environment, error) {
	n := len(zScores)
	if len(pricesA) != n || len(pricesB) != n {
		return nil, fmt.Errorf("%w: lengths z=%d a=%d b=%d", ErrSeriesMismatch, n, len(pricesA), len(pricesB))
	}
	if n < MinSeriesLength {
		return nil, fmt.Errorf("%w: need at least %d points, got %d", ErrSeriesMismatch, MinSeriesLength, n)
	}
	for i := 0; i < n; i++ {
		if !finite(zScores[i]) || !finite(pricesA[i]) || !finite(pricesB[i]) {
			return nil, fmt.Errorf("%w: non-finite value at index %d", ErrSeriesMismatch, i)
		}
	}

	e := &Environment{
		zScores:        append([]float64(nil), zScores...),
		pricesA:        append([]float64(nil), pricesA...),
		pricesB:        append([]float64(nil), pricesB...),
		initialBalance: DefaultInitialBalance,
		rewards:        DefaultRewardConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if !finite(e.initialBalance) || e.initialBalance <= 0 {
		return nil, fmt.Errorf("initial balance must be positive, got %v", e.initialBalance)
	}
	return e, nil
}

// Reset starts a new episode and returns the first observation
func (e *Environment) Reset() Observation {
	e.state = State{
		Step:     0,
		Position: Flat,
		Balance:  e.initialBalance,
	}
	e.history = []float64{e.initialBalance}
	e.started = true
	e.done = false
	return e.observe()
}

// Step advances one bar and applies the action at the new bar's spread price.
// A failed Step leaves the episode untouched.
func (e *Environment) Step(action Action) (StepResult, error) {
	if !e.started {
		return StepResult{}, ErrNotReset
	}
	if e.done {
		return StepResult{}, ErrEpisodeDone
	}
	if !action.Valid() {
		return StepResult{}, fmt.Errorf("%w: %d", ErrInvalidAction, int(action))
	}

	next := e.state.Step + 1
	spreadPrice := e.pricesA[next] - e.pricesB[next]

	after, outcome, err := Transition(e.state, action, spreadPrice)
	if err != nil {
		return StepResult{}, err
	}
	after.Step = next

	e.state = after
	e.history = append(e.history, after.Balance)
	e.done = next >= len(e.zScores)-2

	return StepResult{
		Observation: e.observe(),
		Reward:      e.rewards.Shape(outcome, after, e.initialBalance, e.history),
		Done:        e.done,
		Truncated:   false,
		Info:        map[string]any{},
	}, nil
}

func (e *Environment) observe() Observation {
	step := e.state.Step

	volatility := 0.0
	if step > volatilityWindow {
		volatility = popStdDev(e.zScores[step-volatilityWindow : step])
	}

	return Observation{
		e.zScores[step],
		float64(e.state.Position),
		e.state.Balance / e.initialBalance,
		volatility,
	}
}

// State returns a copy of the current episode state
func (e *Environment) State() State {
	return e.state
}

// PortfolioHistory returns a copy of the balance recorded at reset and after every step
func (e *Environment) PortfolioHistory() []float64 {
	return append([]float64(nil), e.history...)
}

// Done reports whether the current episode has finished
func (e *Environment) Done() bool {
	return e.done
}

// Len is the number of bars in the series
func (e *Environment) Len() int {
	return len(e.zScores)
}

// InitialBalance returns the balance every episode starts from
func (e *Environment) InitialBalance() float64 {
	return e.initialBalance
}

// SpreadPrice returns the raw A - B price at index i
func (e *Environment) SpreadPrice(i int) float64 {
	return e.pricesA[i] - e.pricesB[i]
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
