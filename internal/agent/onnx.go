package agent

import (
	"fmt"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/TruWeaveTrader/pairs-gym/internal/env"
)

// DefaultRuntimeLibrary returns the usual onnxruntime shared library name for this OS
func DefaultRuntimeLibrary() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "/usr/lib/libonnxruntime.so"
	}
}

// InitializeRuntime loads the onnxruntime library once per process
func InitializeRuntime(libPath string) error {
	if ort.IsInitialized() {
		return nil
	}
	if libPath == "" {
		libPath = DefaultRuntimeLibrary()
	}
	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize onnxruntime: %w", err)
	}
	return nil
}

// ONNXPolicy runs an exported policy network taking a [1,4] observation and
// returning [1,3] action logits
type ONNXPolicy struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// NewONNXPolicy opens the model. InitializeRuntime must have succeeded first.
func NewONNXPolicy(modelPath, inputName, outputName string) (*ONNXPolicy, error) {
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, env.ObservationSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, env.NumActions))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{inputName}, []string{outputName},
		[]ort.Value{input}, []ort.Value{output}, nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &ONNXPolicy{
		session: session,
		input:   input,
		output:  output,
	}, nil
}

// Predict runs one inference and returns the highest scoring action
func (p *ONNXPolicy) Predict(obs env.Observation) (env.Action, error) {
	data := p.input.GetData()
	for i, v := range obs {
		data[i] = float32(v)
	}

	if err := p.session.Run(); err != nil {
		return env.Hold, fmt.Errorf("inference failed: %w", err)
	}
	return argmax(p.output.GetData()), nil
}

// Close releases the session and its tensors
func (p *ONNXPolicy) Close() {
	if p.session != nil {
		p.session.Destroy()
	}
	if p.input != nil {
		p.input.Destroy()
	}
	if p.output != nil {
		p.output.Destroy()
	}
}

func argmax(logits []float32) env.Action {
	best := 0
	for i := 1; i < len(logits) && i < env.NumActions; i++ {
		if logits[i] > logits[best] {
			best = i
		}
	}
	return env.Action(best)
}
