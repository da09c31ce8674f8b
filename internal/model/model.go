package model

import (
	"math/rand"

	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"sgns/internal/dataset"
)

// Word2Vec holds the input and output embedding tables.
type Word2Vec struct {
	ivectors *gorgonia.Node
	ovectors *gorgonia.Node
	vocab    int
	dim      int
}

func newTable(g *gorgonia.ExprGraph, name string, vocab, dim int, backing []float32) *gorgonia.Node {
	return gorgonia.NewMatrix(g,
		tensor.Float32,
		gorgonia.WithShape(vocab, dim),
		gorgonia.WithName(name),
		gorgonia.WithValue(tensor.New(tensor.WithShape(vocab, dim), tensor.WithBacking(backing))),
	)
}

// uniformTable draws from U(-0.5/dim, 0.5/dim), the usual word2vec init.
func uniformTable(rng *rand.Rand, vocab, dim int) []float32 {
	w := make([]float32, vocab*dim)
	scale := 1 / float32(dim)
	for i := range w {
		w[i] = (rng.Float32() - 0.5) * scale
	}
	return w
}

// NewWord2Vec builds both tables, from init when given, randomly otherwise.
func NewWord2Vec(g *gorgonia.ExprGraph, vocab, dim int, init *State, rng *rand.Rand) (*Word2Vec, error) {
	var iw, ow []float32
	if init != nil {
		if err := init.Check(vocab, dim); err != nil {
			return nil, err
		}
		iw = append([]float32(nil), init.IVectors...)
		ow = append([]float32(nil), init.OVectors...)
	} else {
		iw = uniformTable(rng, vocab, dim)
		ow = uniformTable(rng, vocab, dim)
	}
	return &Word2Vec{
		ivectors: newTable(g, "ivectors", vocab, dim, iw),
		ovectors: newTable(g, "ovectors", vocab, dim, ow),
		vocab:    vocab,
		dim:      dim,
	}, nil
}

// ForwardI looks up input vectors for a vector of ids.
func (w *Word2Vec) ForwardI(ids *gorgonia.Node) (*gorgonia.Node, error) {
	return gorgonia.ByIndices(w.ivectors, ids, 0)
}

// ForwardO looks up output vectors for a vector of ids.
func (w *Word2Vec) ForwardO(ids *gorgonia.Node) (*gorgonia.Node, error) {
	return gorgonia.ByIndices(w.ovectors, ids, 0)
}

func (w *Word2Vec) Learnables() gorgonia.Nodes {
	return gorgonia.Nodes{w.ivectors, w.ovectors}
}

// Vectors returns a copy of the input table, the embedding matrix.
func (w *Word2Vec) Vectors() []float32 {
	return append([]float32(nil), w.ivectors.Value().Data().([]float32)...)
}

func (w *Word2Vec) State() *State {
	return &State{
		VocabSize: w.vocab,
		Dim:       w.dim,
		IVectors:  w.Vectors(),
		OVectors:  append([]float32(nil), w.ovectors.Value().Data().([]float32)...),
	}
}

type Config struct {
	VocabSize   int
	Dim         int
	NNegs       int
	BatchSize   int
	ContextSize int

	// Weights, when set, biases negative sampling towards frequent words.
	Weights []float64

	Optim OptimState
	Init  *State
	Seed  int64
}

// SkipGramNegSampling is the SGNS loss head over a Word2Vec. The graph is
// built once for Config.BatchSize pairs; shorter batches are padded and the
// padding carries zero weight.
type SkipGramNegSampling struct {
	g         *gorgonia.ExprGraph
	embedding *Word2Vec
	sampler   *Sampler
	cfg       Config

	centers    *gorgonia.Node
	contexts   *gorgonia.Node
	negCenters *gorgonia.Node
	negatives  *gorgonia.Node
	posWeight  *gorgonia.Node
	negWeight  *gorgonia.Node
	loss       *gorgonia.Node

	centerIDs    []int
	contextIDs   []int
	negCenterIDs []int
	negativeIDs  []int
	posW         []float32
	negW         []float32

	vm     gorgonia.VM
	solver *gorgonia.AdamSolver
	optim  OptimState
}

func New(cfg Config) (*SkipGramNegSampling, error) {
	switch {
	case cfg.VocabSize <= 0, cfg.Dim <= 0, cfg.NNegs <= 0, cfg.BatchSize <= 0, cfg.ContextSize <= 0:
		return nil, errors.Errorf("invalid model config: vocab=%d dim=%d negs=%d batch=%d context=%d",
			cfg.VocabSize, cfg.Dim, cfg.NNegs, cfg.BatchSize, cfg.ContextSize)
	case cfg.Weights != nil && len(cfg.Weights) != cfg.VocabSize:
		return nil, errors.Errorf("negative sampling weights have %d entries, vocabulary has %d",
			len(cfg.Weights), cfg.VocabSize)
	}
	if cfg.Optim.Solver == "" {
		cfg.Optim = DefaultOptimState(1e-3)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	g := gorgonia.NewGraph()
	w2v, err := NewWord2Vec(g, cfg.VocabSize, cfg.Dim, cfg.Init, rng)
	if err != nil {
		return nil, err
	}

	pos := cfg.BatchSize * cfg.ContextSize
	neg := pos * cfg.NNegs
	s := &SkipGramNegSampling{
		g:            g,
		embedding:    w2v,
		sampler:      NewSampler(cfg.VocabSize, cfg.Weights, rng),
		cfg:          cfg,
		centerIDs:    make([]int, pos),
		contextIDs:   make([]int, pos),
		negCenterIDs: make([]int, neg),
		negativeIDs:  make([]int, neg),
		posW:         make([]float32, pos),
		negW:         make([]float32, neg),
		optim:        cfg.Optim,
	}
	s.centers = gorgonia.NewVector(g, tensor.Int, gorgonia.WithShape(pos), gorgonia.WithName("centers"))
	s.contexts = gorgonia.NewVector(g, tensor.Int, gorgonia.WithShape(pos), gorgonia.WithName("contexts"))
	s.negCenters = gorgonia.NewVector(g, tensor.Int, gorgonia.WithShape(neg), gorgonia.WithName("neg_centers"))
	s.negatives = gorgonia.NewVector(g, tensor.Int, gorgonia.WithShape(neg), gorgonia.WithName("negatives"))
	s.posWeight = gorgonia.NewVector(g, tensor.Float32, gorgonia.WithShape(pos), gorgonia.WithName("pos_weight"))
	s.negWeight = gorgonia.NewVector(g, tensor.Float32, gorgonia.WithShape(neg), gorgonia.WithName("neg_weight"))

	if s.loss, err = s.forward(); err != nil {
		return nil, errors.Wrap(err, "failed to build SGNS graph")
	}
	if _, err := gorgonia.Grad(s.loss, w2v.Learnables()...); err != nil {
		return nil, errors.Wrap(err, "failed to build gradients")
	}

	s.vm = gorgonia.NewTapeMachine(g, gorgonia.BindDualValues(w2v.Learnables()...))
	s.solver = gorgonia.NewAdamSolver(
		gorgonia.WithLearnRate(cfg.Optim.LearnRate),
		gorgonia.WithBeta1(cfg.Optim.Beta1),
		gorgonia.WithBeta2(cfg.Optim.Beta2),
		gorgonia.WithEps(cfg.Optim.Eps),
	)
	return s, nil
}

// dots returns the row-wise dot products of the looked up input and output
// vectors.
func (s *SkipGramNegSampling) dots(in, out *gorgonia.Node) (*gorgonia.Node, error) {
	iv, err := s.embedding.ForwardI(in)
	if err != nil {
		return nil, err
	}
	ov, err := s.embedding.ForwardO(out)
	if err != nil {
		return nil, err
	}
	prod, err := gorgonia.HadamardProd(iv, ov)
	if err != nil {
		return nil, err
	}
	return gorgonia.Sum(prod, 1)
}

// forward builds
//
//	loss = Σ posW·softplus(-o·i) + Σ negW·softplus(n·i)
//
// which is -(logσ(o·i) + Σ logσ(-n·i)) averaged by the weights.
func (s *SkipGramNegSampling) forward() (*gorgonia.Node, error) {
	posDots, err := s.dots(s.centers, s.contexts)
	if err != nil {
		return nil, err
	}
	negDots, err := s.dots(s.negCenters, s.negatives)
	if err != nil {
		return nil, err
	}

	flipped, err := gorgonia.Neg(posDots)
	if err != nil {
		return nil, err
	}
	posTerm, err := gorgonia.Softplus(flipped)
	if err != nil {
		return nil, err
	}
	negTerm, err := gorgonia.Softplus(negDots)
	if err != nil {
		return nil, err
	}

	posWeighted, err := gorgonia.HadamardProd(posTerm, s.posWeight)
	if err != nil {
		return nil, err
	}
	negWeighted, err := gorgonia.HadamardProd(negTerm, s.negWeight)
	if err != nil {
		return nil, err
	}
	posLoss, err := gorgonia.Sum(posWeighted)
	if err != nil {
		return nil, err
	}
	negLoss, err := gorgonia.Sum(negWeighted)
	if err != nil {
		return nil, err
	}
	return gorgonia.Add(posLoss, negLoss)
}

// fill lays the batch out flat: slot r = b*C + c for positives and
// r*n + k for the negatives of slot r.
func (s *SkipGramNegSampling) fill(b *dataset.Batch) error {
	C, n := s.cfg.ContextSize, s.cfg.NNegs
	if b.Size() == 0 || b.Size() > s.cfg.BatchSize {
		return errors.Errorf("batch of %d pairs, model takes 1 to %d", b.Size(), s.cfg.BatchSize)
	}

	s.sampler.Draw(s.negativeIDs)
	weight := 1 / float32(b.Size()*C)
	for r := range s.centerIDs {
		row := r / C
		center, context, w := 0, 0, float32(0)
		if row < b.Size() {
			if len(b.Contexts[row]) != C {
				return errors.Errorf("pair %d has %d context words, model takes %d", row, len(b.Contexts[row]), C)
			}
			center, context, w = b.Centers[row], b.Contexts[row][r%C], weight
		}
		s.centerIDs[r], s.contextIDs[r], s.posW[r] = center, context, w
		for k := 0; k < n; k++ {
			s.negCenterIDs[r*n+k], s.negW[r*n+k] = center, w
		}
	}

	for _, l := range []struct {
		node *gorgonia.Node
		val  tensor.Tensor
	}{
		{s.centers, tensor.New(tensor.WithShape(len(s.centerIDs)), tensor.WithBacking(s.centerIDs))},
		{s.contexts, tensor.New(tensor.WithShape(len(s.contextIDs)), tensor.WithBacking(s.contextIDs))},
		{s.negCenters, tensor.New(tensor.WithShape(len(s.negCenterIDs)), tensor.WithBacking(s.negCenterIDs))},
		{s.negatives, tensor.New(tensor.WithShape(len(s.negativeIDs)), tensor.WithBacking(s.negativeIDs))},
		{s.posWeight, tensor.New(tensor.WithShape(len(s.posW)), tensor.WithBacking(s.posW))},
		{s.negWeight, tensor.New(tensor.WithShape(len(s.negW)), tensor.WithBacking(s.negW))},
	} {
		if err := gorgonia.Let(l.node, l.val); err != nil {
			return errors.Wrapf(err, "failed to set %s", l.node.Name())
		}
	}
	return nil
}

// Loss runs the forward and backward pass for one batch and returns the
// mean SGNS loss. Gradients from the previous batch are cleared first.
func (s *SkipGramNegSampling) Loss(b *dataset.Batch) (float64, error) {
	if err := s.fill(b); err != nil {
		return 0, err
	}
	s.vm.Reset()
	if err := s.vm.RunAll(); err != nil {
		return 0, errors.Wrap(err, "vm.RunAll failed")
	}
	v, ok := s.loss.Value().Data().(float32)
	if !ok {
		return 0, errors.Errorf("loss value is %T", s.loss.Value().Data())
	}
	return float64(v), nil
}

// Step applies one Adam update with the gradients of the last Loss call.
func (s *SkipGramNegSampling) Step() error {
	if err := s.solver.Step(gorgonia.NodesToValueGrads(s.embedding.Learnables())); err != nil {
		return errors.Wrap(err, "solver step failed")
	}
	s.optim.Steps++
	return nil
}

func (s *SkipGramNegSampling) Embedding() *Word2Vec { return s.embedding }

func (s *SkipGramNegSampling) State() *State { return s.embedding.State() }

func (s *SkipGramNegSampling) OptimState() OptimState { return s.optim }

func (s *SkipGramNegSampling) Close() error { return s.vm.Close() }

// EstimateBytes is a rough upper bound of the memory a model with cfg needs:
// tables with their gradients and Adam moments plus per-batch activations.
func EstimateBytes(cfg Config) uint64 {
	const f32 = 4
	tables := uint64(cfg.VocabSize) * uint64(cfg.Dim) * 2 * 4
	rows := uint64(cfg.BatchSize) * uint64(cfg.ContextSize) * uint64(cfg.NNegs+1)
	activations := rows * uint64(cfg.Dim) * 3 * 2
	return (tables + activations) * f32
}
