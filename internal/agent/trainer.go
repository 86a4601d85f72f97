package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// EpisodeStats summarises one training episode
type EpisodeStats struct {
	Episode      int     `json:"episode"`
	Steps        int     `json:"steps"`
	TotalReward  float64 `json:"total_reward"`
	FinalBalance float64 `json:"final_balance"`
	Epsilon      float64 `json:"epsilon"`
}

// Trainer runs Q-learning episodes against an environment
type Trainer struct {
	learner  *QLearner
	logger   *zap.Logger
	logEvery int
}

// NewTrainer creates a trainer for the given learner
func NewTrainer(learner *QLearner, logger *zap.Logger) *Trainer {
	return &Trainer{
		learner:  learner,
		logger:   logger.With(zap.String("component", "trainer")),
		logEvery: 10,
	}
}

// Train plays the given number of episodes, updating the learner after every step.
// Cancellation is checked between episodes.
func (t *Trainer) Train(ctx context.Context, e Env, episodes int) ([]EpisodeStats, error) {
	if episodes <= 0 {
		return nil, fmt.Errorf("episodes must be positive, got %d", episodes)
	}

	history := make([]EpisodeStats, 0, episodes)
	for ep := 1; ep <= episodes; ep++ {
		if err := ctx.Err(); err != nil {
			return history, err
		}

		stats, err := t.runEpisode(e)
		if err != nil {
			return history, fmt.Errorf("episode %d: %w", ep, err)
		}
		stats.Episode = ep
		history = append(history, stats)

		t.learner.DecayEpsilon()

		t.logger.Debug("episode finished",
			zap.Int("episode", ep),
			zap.Int("steps", stats.Steps),
			zap.Float64("reward", stats.TotalReward),
			zap.Float64("balance", stats.FinalBalance))
		if ep%t.logEvery == 0 || ep == episodes {
			t.logger.Info("training progress",
				zap.Int("episode", ep),
				zap.Int("episodes", episodes),
				zap.Float64("reward", stats.TotalReward),
				zap.Float64("balance", stats.FinalBalance),
				zap.Float64("epsilon", t.learner.Epsilon()))
		}
	}

	return history, nil
}

func (t *Trainer) runEpisode(e Env) (EpisodeStats, error) {
	obs := e.Reset()
	stats := EpisodeStats{Epsilon: t.learner.Epsilon()}

	for {
		action := t.learner.Act(obs)
		res, err := e.Step(action)
		if err != nil {
			return stats, fmt.Errorf("step %d: %w", stats.Steps+1, err)
		}

		t.learner.Update(obs, action, res.Reward, res.Observation, res.Done)
		obs = res.Observation
		stats.Steps++
		stats.TotalReward += res.Reward

		if res.Done || res.Truncated {
			break
		}
	}

	stats.FinalBalance = e.State().Balance
	return stats, nil
}
