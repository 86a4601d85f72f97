package strategy

import (
	"fmt"

	"github.com/TruWeaveTrader/pairs-gym/internal/env"
)

// PairsTradingConfig holds the z-score thresholds of the rule-based pairs policy
type PairsTradingConfig struct {
	EntryThreshold    float64 `json:"entry_threshold"`     // Default: 2.0
	ExitThreshold     float64 `json:"exit_threshold"`      // Default: 0.5
	StopLossThreshold float64 `json:"stop_loss_threshold"` // Default: 3.0
}

// DefaultPairsTradingConfig returns the standard thresholds
func DefaultPairsTradingConfig() PairsTradingConfig {
	return PairsTradingConfig{
		EntryThreshold:    2.0,
		ExitThreshold:     0.5,
		StopLossThreshold: 3.0,
	}
}

// Validate checks the thresholds are ordered
func (c PairsTradingConfig) Validate() error {
	if c.EntryThreshold <= 0 {
		return fmt.Errorf("entry threshold must be positive, got %.2f", c.EntryThreshold)
	}
	if c.StopLossThreshold <= c.EntryThreshold {
		return fmt.Errorf("stop loss threshold %.2f must exceed entry threshold %.2f", c.StopLossThreshold, c.EntryThreshold)
	}
	if c.ExitThreshold < -c.EntryThreshold || c.ExitThreshold >= c.EntryThreshold {
		return fmt.Errorf("exit threshold %.2f must lie within (-%.2f, %.2f)", c.ExitThreshold, c.EntryThreshold, c.EntryThreshold)
	}
	return nil
}

// Decision is an action together with why it was taken
type Decision struct {
	Action     env.Action
	Reason     string
	Confidence float64
}

// ZScorePolicy trades mean reversion of the spread: long when the z-score is
// stretched low, short when stretched high, out on reversion or stop loss.
type ZScorePolicy struct {
	entryThreshold    float64
	exitThreshold     float64
	stopLossThreshold float64
}

// NewZScorePolicy creates a rule-based policy
func NewZScorePolicy(cfg PairsTradingConfig) (*ZScorePolicy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pairs trading config: %w", err)
	}
	return &ZScorePolicy{
		entryThreshold:    cfg.EntryThreshold,
		exitThreshold:     cfg.ExitThreshold,
		stopLossThreshold: cfg.StopLossThreshold,
	}, nil
}

// Predict implements agent.Policy
func (s *ZScorePolicy) Predict(obs env.Observation) (env.Action, error) {
	d, err := s.Decide(obs)
	return d.Action, err
}

// Decide evaluates exits for an open position and entries otherwise
func (s *ZScorePolicy) Decide(obs env.Observation) (Decision, error) {
	position := obs.Position()
	zScore := obs.ZScore()

	switch position {
	case env.Flat:
		return s.checkEntrySignals(zScore), nil
	case env.Long, env.Short:
		return s.checkExitSignals(position, zScore), nil
	default:
		return Decision{Action: env.Hold}, fmt.Errorf("unknown position %v", obs[1])
	}
}

// checkEntrySignals checks for pair entry signals
func (s *ZScorePolicy) checkEntrySignals(zScore float64) Decision {
	// Long spread (buy A, sell B)
	if zScore <= -s.entryThreshold {
		return Decision{
			Action:     env.EnterOrCloseLong,
			Reason:     fmt.Sprintf("Z-score %.2f <= %.2f (long spread)", zScore, -s.entryThreshold),
			Confidence: s.calculateConfidence(-zScore),
		}
	}

	// Short spread (sell A, buy B)
	if zScore >= s.entryThreshold {
		return Decision{
			Action:     env.EnterOrCloseShort,
			Reason:     fmt.Sprintf("Z-score %.2f >= %.2f (short spread)", zScore, s.entryThreshold),
			Confidence: s.calculateConfidence(zScore),
		}
	}

	return Decision{Action: env.Hold}
}

// checkExitSignals closes with the opposite action on stop loss or reversion
func (s *ZScorePolicy) checkExitSignals(position env.Position, zScore float64) Decision {
	closeAction := env.EnterOrCloseShort
	if position == env.Short {
		closeAction = env.EnterOrCloseLong
	}

	if (position == env.Long && zScore <= -s.stopLossThreshold) ||
		(position == env.Short && zScore >= s.stopLossThreshold) {
		return Decision{Action: closeAction, Reason: fmt.Sprintf("Stop loss: Z-score %.2f", zScore), Confidence: 0.95}
	}

	if (position == env.Long && zScore >= s.exitThreshold) ||
		(position == env.Short && zScore <= -s.exitThreshold) {
		return Decision{Action: closeAction, Reason: fmt.Sprintf("Mean reversion: Z-score %.2f", zScore), Confidence: 0.5}
	}

	return Decision{Action: env.Hold}
}

// calculateConfidence scales from 0.5 at the entry threshold towards 0.9 at the stop
func (s *ZScorePolicy) calculateConfidence(absZScore float64) float64 {
	confidence := 0.5 + (absZScore-s.entryThreshold)/(s.stopLossThreshold-s.entryThreshold)*0.4

	if confidence > 0.95 {
		confidence = 0.95
	}
	if confidence < 0.1 {
		confidence = 0.1
	}

	return confidence
}
