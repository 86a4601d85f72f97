package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TruWeaveTrader/pairs-gym/internal/agent"
	"github.com/TruWeaveTrader/pairs-gym/internal/config"
	"github.com/TruWeaveTrader/pairs-gym/internal/models"
	"github.com/TruWeaveTrader/pairs-gym/internal/stats"
	"github.com/TruWeaveTrader/pairs-gym/pkg/formatters"
)

func init() {
	rootCmd.AddCommand(trainCmd)
	rangeFlags(trainCmd)
	trainCmd.Flags().Int("episodes", 0, "training episodes (overrides TRAIN_EPISODES)")
	trainCmd.Flags().Int64("seed", 0, "random seed (overrides SEED)")
	trainCmd.Flags().String("policy", "", "where to save the policy (overrides POLICY_PATH)")
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a tabular Q-learning agent on the training range",
	Long: `Builds the z-score environment over the training range, runs
epsilon-greedy Q-learning for the configured number of episodes and saves
the learned table with a manifest describing the run.`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	from, to, err := dateRange(cmd, cfg.TrainStart, cfg.TrainEnd)
	if err != nil {
		return err
	}

	pair, err := loadPair(ctx, cmd, from, to)
	if err != nil {
		return fmt.Errorf("failed to load pair: %w", err)
	}

	_, err = trainAndSave(ctx, pair, trainOptionsFromFlags(cmd, from, to))
	return err
}

// trainOptions are the per-run training settings after flag overrides
type trainOptions struct {
	episodes   int
	seed       int64
	policyPath string
	from, to   time.Time
}

func trainOptionsFromFlags(cmd *cobra.Command, from, to time.Time) trainOptions {
	opts := trainOptions{
		episodes:   cfg.TrainEpisodes,
		seed:       cfg.Seed,
		policyPath: cfg.PolicyPath,
		from:       from,
		to:         to,
	}
	if n, _ := cmd.Flags().GetInt("episodes"); n > 0 {
		opts.episodes = n
	}
	if cmd.Flags().Changed("seed") {
		opts.seed, _ = cmd.Flags().GetInt64("seed")
	}
	if p, _ := cmd.Flags().GetString("policy"); p != "" {
		opts.policyPath = p
	}
	return opts
}

// trainAndSave trains a Q-table on pair and writes it with its run manifest
func trainAndSave(ctx context.Context, pair *models.PairSeries, opts trainOptions) (*agent.QLearner, error) {
	episodes, seed, policyPath := opts.episodes, opts.seed, opts.policyPath

	coint, err := stats.CheckCointegration(pair.A, pair.B)
	if err != nil {
		return nil, fmt.Errorf("cointegration test failed: %w", err)
	}
	reportPair(pair, coint)

	sig, err := buildSignal(pair)
	if err != nil {
		return nil, err
	}
	environment, err := buildEnvironment(pair, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to build environment: %w", err)
	}

	qcfg := agent.DefaultQLearnerConfig()
	qcfg.LearningRate = cfg.LearningRate
	qcfg.Discount = cfg.Discount
	qcfg.Epsilon = cfg.Epsilon
	qcfg.EpsilonDecay = cfg.EpsilonDecay
	learner, err := agent.NewQLearner(qcfg, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, fmt.Errorf("invalid learner settings: %w", err)
	}

	fmt.Printf("🏋️  Training on %s/%s • %d bars • %d episodes • β=%.4f\n",
		pair.SymbolA, pair.SymbolB, pair.Len(), episodes, sig.beta)

	startedAt := time.Now()
	history, err := agent.NewTrainer(learner, logger).Train(ctx, environment, episodes)
	switch {
	case errors.Is(err, context.Canceled) && len(history) > 0:
		logger.Warn("training interrupted, saving partial policy", zap.Int("episodes", len(history)))
	case err != nil:
		return nil, fmt.Errorf("training failed: %w", err)
	}

	if err := learner.Save(policyPath); err != nil {
		return nil, fmt.Errorf("failed to save policy: %w", err)
	}

	last := history[len(history)-1]
	run := &agent.TrainingRun{
		StartedAt:    startedAt.UTC(),
		FinishedAt:   time.Now().UTC(),
		SymbolA:      pair.SymbolA,
		SymbolB:      pair.SymbolB,
		Start:        opts.from.Format(config.DateLayout),
		End:          opts.to.Format(config.DateLayout),
		Bars:         pair.Len(),
		HedgeRatio:   sig.beta,
		PValue:       coint.PValue,
		Episodes:     len(history),
		Seed:         seed,
		FinalReward:  last.TotalReward,
		FinalBalance: last.FinalBalance,
	}
	if err := agent.WriteTrainingRun(policyPath, run); err != nil {
		logger.Warn("failed to write training manifest", zap.Error(err))
	}

	fmt.Println(formatters.FormatTrainingSummary(history, 10))
	fmt.Printf("\n💾 Policy saved to %s • %s\n", policyPath, time.Since(startedAt).Round(time.Millisecond))

	return learner, nil
}
