package checkpoint

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"sgns/internal/model"
)

// Model is the on-disk form of <name>.pt.
type Model struct {
	RunID   string
	SavedAt time.Time
	Epochs  int
	State   model.State
}

// Optim is the on-disk form of <name>.optim.pt.
type Optim struct {
	RunID   string           `json:"run_id"`
	SavedAt time.Time        `json:"saved_at"`
	State   model.OptimState `json:"state"`
}

type EpochMetrics struct {
	Epoch    int     `json:"epoch"`
	Loss     float64 `json:"loss"`
	Batches  int     `json:"batches"`
	Pairs    int     `json:"pairs"`
	Duration float64 `json:"duration_seconds"`
}

type Metrics struct {
	RunID  string         `json:"run_id"`
	Epochs []EpochMetrics `json:"epochs"`
}

// NewRunID tags the files written by one training run.
func NewRunID() string { return uuid.NewString() }

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}
	return nil
}

func SaveModel(path string, m *Model) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create model checkpoint")
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := gob.NewEncoder(w).Encode(m); err != nil {
		return errors.Wrap(err, "failed to encode model checkpoint")
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "failed to write model checkpoint")
	}
	return nil
}

func LoadModel(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open model checkpoint")
	}
	defer f.Close()

	var m Model
	if err := gob.NewDecoder(bufio.NewReader(f)).Decode(&m); err != nil {
		return nil, errors.Wrapf(err, "failed to decode model checkpoint %s", path)
	}
	if err := m.State.Check(m.State.VocabSize, m.State.Dim); err != nil {
		return nil, errors.Wrapf(err, "corrupt model checkpoint %s", path)
	}
	return &m, nil
}

func SaveOptim(path string, o *Optim) error {
	return saveJSON(path, o)
}

func LoadOptim(path string) (*Optim, error) {
	var o Optim
	if err := loadJSON(path, &o); err != nil {
		return nil, errors.Wrap(err, "failed to load optimizer checkpoint")
	}
	return &o, nil
}

func SaveMetrics(path string, m *Metrics) error {
	return saveJSON(path, m)
}

func LoadMetrics(path string) (*Metrics, error) {
	var m Metrics
	if err := loadJSON(path, &m); err != nil {
		return nil, errors.Wrap(err, "failed to load metrics")
	}
	return &m, nil
}

// SaveVectors writes the vocab x dim embedding matrix in NumPy .npy format.
func SaveVectors(path string, vocab, dim int, data []float32) error {
	if len(data) != vocab*dim {
		return errors.Wrapf(model.ErrShapeMismatch, "%d values for a %dx%d matrix", len(data), vocab, dim)
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create embedding file")
	}
	defer f.Close()

	t := tensor.New(tensor.WithShape(vocab, dim), tensor.WithBacking(data))
	w := bufio.NewWriter(f)
	if err := t.WriteNpy(w); err != nil {
		return errors.Wrap(err, "failed to write embedding matrix")
	}
	return errors.Wrap(w.Flush(), "failed to write embedding matrix")
}

// LoadVectors reads a matrix written by SaveVectors.
func LoadVectors(path string) (*tensor.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open embedding file")
	}
	defer f.Close()

	t := new(tensor.Dense)
	if err := t.ReadNpy(bufio.NewReader(f)); err != nil {
		return nil, errors.Wrapf(err, "failed to read embedding matrix %s", path)
	}
	if t.Dims() != 2 || t.Dtype() != tensor.Float32 {
		return nil, errors.Wrapf(model.ErrShapeMismatch, "%s holds a %v %v tensor, want a float32 matrix", path, t.Shape(), t.Dtype())
	}
	return t, nil
}

func saveJSON(path string, data interface{}) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return errors.Wrapf(encoder.Encode(data), "failed to encode %s", path)
}

func loadJSON(path string, data interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewDecoder(f).Decode(data)
}
