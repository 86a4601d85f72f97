// Package agent holds the decision makers that drive a trading environment:
// a tabular Q-learner trained in-process and an ONNX model exported elsewhere.
package agent

import (
	"github.com/TruWeaveTrader/pairs-gym/internal/env"
)

// Policy maps an observation to an action
type Policy interface {
	Predict(obs env.Observation) (env.Action, error)
}

// Env is the part of an environment the trainer needs
type Env interface {
	Reset() env.Observation
	Step(action env.Action) (env.StepResult, error)
	State() env.State
}

var _ Env = (*env.Environment)(nil)
