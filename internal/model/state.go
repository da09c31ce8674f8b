package model

import (
	"github.com/pkg/errors"
)

var ErrShapeMismatch = errors.New("state shape mismatch")

// State is the trainable part of the model, row-major vocab x dim.
type State struct {
	VocabSize int
	Dim       int
	IVectors  []float32
	OVectors  []float32
}

func (s *State) Check(vocab, dim int) error {
	if s.VocabSize != vocab || s.Dim != dim {
		return errors.Wrapf(ErrShapeMismatch, "state is %dx%d, model is %dx%d", s.VocabSize, s.Dim, vocab, dim)
	}
	if len(s.IVectors) != vocab*dim || len(s.OVectors) != vocab*dim {
		return errors.Wrapf(ErrShapeMismatch, "state tables hold %d and %d values, want %d",
			len(s.IVectors), len(s.OVectors), vocab*dim)
	}
	return nil
}

// OptimState describes the solver. Gorgonia keeps Adam's moment estimates
// private, so only the hyper-parameters and the step count survive a restart.
type OptimState struct {
	Solver    string  `json:"solver"`
	LearnRate float64 `json:"learn_rate"`
	Beta1     float64 `json:"beta1"`
	Beta2     float64 `json:"beta2"`
	Eps       float64 `json:"eps"`
	Steps     int     `json:"steps"`
}

func DefaultOptimState(lr float64) OptimState {
	return OptimState{Solver: "adam", LearnRate: lr, Beta1: 0.9, Beta2: 0.999, Eps: 1e-8}
}
