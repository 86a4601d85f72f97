package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sort"

	"github.com/TruWeaveTrader/pairs-gym/internal/env"
)

// ErrInvalidTable is returned when a saved Q-table does not match its bin layout
var ErrInvalidTable = errors.New("invalid q-table")

// positions is the number of discrete positions in the state key
const positions = 3

// QLearnerConfig holds the learning hyperparameters
type QLearnerConfig struct {
	LearningRate float64   `json:"learning_rate"`
	Discount     float64   `json:"discount"`
	Epsilon      float64   `json:"epsilon"`
	EpsilonDecay float64   `json:"epsilon_decay"`
	MinEpsilon   float64   `json:"min_epsilon"`
	ZEdges       []float64 `json:"z_edges"`
}

// DefaultQLearnerConfig bins the z-score in half-sigma steps out to +/-2
func DefaultQLearnerConfig() QLearnerConfig {
	return QLearnerConfig{
		LearningRate: 0.1,
		Discount:     0.95,
		Epsilon:      1.0,
		EpsilonDecay: 0.995,
		MinEpsilon:   0.05,
		ZEdges:       []float64{-2, -1.5, -1, -0.5, 0, 0.5, 1, 1.5, 2},
	}
}

// Validate checks the hyperparameters are usable
func (c QLearnerConfig) Validate() error {
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return fmt.Errorf("learning rate must be in (0, 1], got %v", c.LearningRate)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("discount must be in [0, 1], got %v", c.Discount)
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("epsilon must be in [0, 1], got %v", c.Epsilon)
	}
	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return fmt.Errorf("epsilon decay must be in (0, 1], got %v", c.EpsilonDecay)
	}
	if !sort.Float64sAreSorted(c.ZEdges) {
		return fmt.Errorf("z edges must be sorted")
	}
	return nil
}

// QLearner is a tabular Q-learning agent keyed on (z-score bin, position)
type QLearner struct {
	cfg     QLearnerConfig
	table   [][env.NumActions]float64
	epsilon float64
	rng     *rand.Rand
}

// NewQLearner creates a learner with a zeroed table. rng drives exploration.
func NewQLearner(cfg QLearnerConfig, rng *rand.Rand) (*QLearner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	cfg.ZEdges = append([]float64(nil), cfg.ZEdges...)

	return &QLearner{
		cfg:     cfg,
		table:   make([][env.NumActions]float64, (len(cfg.ZEdges)+1)*positions),
		epsilon: cfg.Epsilon,
		rng:     rng,
	}, nil
}

// StateIndex discretises an observation
func (q *QLearner) StateIndex(obs env.Observation) int {
	bin := sort.SearchFloat64s(q.cfg.ZEdges, obs.ZScore())
	pos := int(obs.Position()) + 1
	return bin*positions + pos
}

// Predict returns the greedy action. Ties go to the lowest action.
func (q *QLearner) Predict(obs env.Observation) (env.Action, error) {
	if !obs.Position().Valid() {
		return env.Hold, fmt.Errorf("observation has invalid position %v", obs[1])
	}
	return q.greedy(q.StateIndex(obs)), nil
}

// Act picks an epsilon-greedy action for training
func (q *QLearner) Act(obs env.Observation) env.Action {
	if q.rng.Float64() < q.epsilon {
		return env.Action(q.rng.Intn(env.NumActions))
	}
	return q.greedy(q.StateIndex(obs))
}

// Update applies one temporal-difference update
func (q *QLearner) Update(obs env.Observation, action env.Action, reward float64, next env.Observation, done bool) {
	s := q.StateIndex(obs)
	target := reward
	if !done {
		row := q.table[q.StateIndex(next)]
		target += q.cfg.Discount * row[q.greedy(q.StateIndex(next))]
	}
	q.table[s][action] += q.cfg.LearningRate * (target - q.table[s][action])
}

// DecayEpsilon shrinks exploration after an episode
func (q *QLearner) DecayEpsilon() {
	q.epsilon *= q.cfg.EpsilonDecay
	if q.epsilon < q.cfg.MinEpsilon {
		q.epsilon = q.cfg.MinEpsilon
	}
}

// Epsilon returns the current exploration rate
func (q *QLearner) Epsilon() float64 {
	return q.epsilon
}

// Value returns Q(obs, action)
func (q *QLearner) Value(obs env.Observation, action env.Action) float64 {
	return q.table[q.StateIndex(obs)][action]
}

func (q *QLearner) greedy(s int) env.Action {
	best := env.Hold
	for a := env.Action(1); a < env.NumActions; a++ {
		if q.table[s][a] > q.table[s][best] {
			best = a
		}
	}
	return best
}

type qTableFile struct {
	Config  QLearnerConfig            `json:"config"`
	Epsilon float64                   `json:"epsilon"`
	Table   [][env.NumActions]float64 `json:"table"`
}

// Save writes the table and its configuration as JSON
func (q *QLearner) Save(path string) error {
	data, err := json.MarshalIndent(qTableFile{
		Config:  q.cfg,
		Epsilon: q.epsilon,
		Table:   q.table,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode q-table: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write q-table: %w", err)
	}
	return nil
}

// LoadQLearner reads a table written by Save
func LoadQLearner(path string, rng *rand.Rand) (*QLearner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read q-table: %w", err)
	}

	var f qTableFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode q-table: %w", err)
	}

	q, err := NewQLearner(f.Config, rng)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if len(f.Table) != len(q.table) {
		return nil, fmt.Errorf("%w: %d rows for %d states", ErrInvalidTable, len(f.Table), len(q.table))
	}
	copy(q.table, f.Table)
	q.epsilon = f.Epsilon
	return q, nil
}
