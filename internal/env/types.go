package env

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAction is returned for an action outside {Hold, EnterOrCloseLong, EnterOrCloseShort}
	ErrInvalidAction = errors.New("invalid action")

	// ErrNotReset is returned when Step is called before the first Reset
	ErrNotReset = errors.New("environment not reset")

	// ErrEpisodeDone is returned when Step is called after an episode already reported done
	ErrEpisodeDone = errors.New("episode already done")

	// ErrSeriesMismatch is returned when the z-score and price series cannot drive an episode
	ErrSeriesMismatch = errors.New("series mismatch")
)

// Position is the exposure to the spread
type Position int

const (
	Short Position = -1
	Flat  Position = 0
	Long  Position = 1
)

// Valid reports whether p is one of Flat, Long or Short
func (p Position) Valid() bool {
	return p == Flat || p == Long || p == Short
}

func (p Position) String() string {
	switch p {
	case Flat:
		return "FLAT"
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	default:
		return fmt.Sprintf("Position(%d)", int(p))
	}
}

// Action is the discrete decision taken at each step
type Action int

const (
	Hold              Action = 0
	EnterOrCloseLong  Action = 1
	EnterOrCloseShort Action = 2
)

// NumActions is the size of the action space
const NumActions = 3

// Valid reports whether a is in the action space
func (a Action) Valid() bool {
	return a >= Hold && a <= EnterOrCloseShort
}

func (a Action) String() string {
	switch a {
	case Hold:
		return "HOLD"
	case EnterOrCloseLong:
		return "LONG_SPREAD"
	case EnterOrCloseShort:
		return "SHORT_SPREAD"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ObservationSize is the length of an observation vector
const ObservationSize = 4

// Observation is [z-score, position, balance/initial balance, volatility proxy]
type Observation [ObservationSize]float64

func (o Observation) ZScore() float64            { return o[0] }
func (o Observation) Position() Position         { return Position(int(o[1])) }
func (o Observation) NormalizedBalance() float64 { return o[2] }
func (o Observation) Volatility() float64        { return o[3] }

// StepResult is everything a Step call hands back to the agent
type StepResult struct {
	Observation Observation
	Reward      float64
	Done        bool
	Truncated   bool
	Info        map[string]any
}
