package agent

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TrainingRun is the manifest persisted next to a trained policy
type TrainingRun struct {
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	SymbolA      string    `json:"symbol_a"`
	SymbolB      string    `json:"symbol_b"`
	Start        string    `json:"start"`
	End          string    `json:"end"`
	Bars         int       `json:"bars"`
	HedgeRatio   float64   `json:"hedge_ratio"`
	PValue       float64   `json:"p_value"`
	Episodes     int       `json:"episodes"`
	Seed         int64     `json:"seed"`
	FinalReward  float64   `json:"final_reward"`
	FinalBalance float64   `json:"final_balance"`
}

// RunPath returns the manifest location for a policy file
func RunPath(policyPath string) string {
	return strings.TrimSuffix(policyPath, filepath.Ext(policyPath)) + ".run.json"
}

// WriteTrainingRun writes the manifest for the policy at policyPath
func WriteTrainingRun(policyPath string, run *TrainingRun) error {
	path := RunPath(policyPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

// ReadTrainingRun reads the manifest of the policy at policyPath.
// It returns os.ErrNotExist when the policy was saved without one.
func ReadTrainingRun(policyPath string) (*TrainingRun, error) {
	data, err := os.ReadFile(RunPath(policyPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, os.ErrNotExist
		}
		return nil, err
	}
	var run TrainingRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// SamePair reports whether the run was trained on the given symbols in order
func (r *TrainingRun) SamePair(symbolA, symbolB string) bool {
	return strings.EqualFold(r.SymbolA, symbolA) && strings.EqualFold(r.SymbolB, symbolB)
}
