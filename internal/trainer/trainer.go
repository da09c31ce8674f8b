package trainer

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"sgns/internal/checkpoint"
	"sgns/internal/dataset"
	"sgns/internal/log"
)

var ErrNonFiniteLoss = errors.New("loss is not finite")

// Model is what the loop needs from a trainable model. Loss computes the
// loss of a batch together with its gradients, Step applies one update.
type Model interface {
	Loss(b *dataset.Batch) (float64, error)
	Step() error
}

type Options struct {
	Epochs    int
	BatchSize int
	Shuffle   bool

	// Subsample is the per-word drop probability. Nil disables subsampling.
	Subsample []float64
}

type Trainer struct {
	model    Model
	pairs    []dataset.Pair
	opts     Options
	rng      *rand.Rand
	logger   log.Logger
	progress io.Writer
}

func New(m Model, pairs []dataset.Pair, opts Options, rng *rand.Rand, logger log.Logger, progress io.Writer) *Trainer {
	if progress == nil {
		progress = io.Discard
	}
	return &Trainer{
		model:    m,
		pairs:    pairs,
		opts:     opts,
		rng:      rng,
		logger:   logger,
		progress: progress,
	}
}

// Run trains for opts.Epochs epochs. Every epoch draws a new subsample of
// the pairs, shuffles it and visits each batch once. Cancelling ctx stops
// the run between batches.
func (t *Trainer) Run(ctx context.Context) ([]checkpoint.EpochMetrics, error) {
	var metrics []checkpoint.EpochMetrics
	for epoch := 1; epoch <= t.opts.Epochs; epoch++ {
		m, err := t.runEpoch(ctx, epoch)
		if err != nil {
			return metrics, err
		}
		metrics = append(metrics, m)
		t.logger.Info("epoch %d: %d pairs, %d batches, mean loss %.4f (%.1fs)",
			epoch, m.Pairs, m.Batches, m.Loss, m.Duration)
	}
	return metrics, nil
}

func (t *Trainer) runEpoch(ctx context.Context, epoch int) (checkpoint.EpochMetrics, error) {
	start := time.Now()
	ds := dataset.New(t.pairs, t.opts.Subsample, t.rng)
	loader := dataset.NewLoader(ds, t.opts.BatchSize, t.opts.Shuffle, t.rng)
	total := loader.NumBatches()
	t.logger.Debug("epoch %d: kept %d of %d pairs", epoch, ds.Len(), len(t.pairs))
	if ds.Len() == 0 {
		t.logger.Warn("epoch %d: subsampling dropped every pair", epoch)
	}

	var lossSum float64
	for i, b := range loader.Batches() {
		if err := ctx.Err(); err != nil {
			fmt.Fprintln(t.progress)
			return checkpoint.EpochMetrics{}, err
		}

		loss, err := t.model.Loss(b)
		if err != nil {
			return checkpoint.EpochMetrics{}, errors.Wrapf(err, "epoch %d batch %d", epoch, i+1)
		}
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return checkpoint.EpochMetrics{}, errors.Wrapf(ErrNonFiniteLoss, "epoch %d batch %d", epoch, i+1)
		}
		if err := t.model.Step(); err != nil {
			return checkpoint.EpochMetrics{}, errors.Wrapf(err, "epoch %d batch %d", epoch, i+1)
		}
		lossSum += loss
		fmt.Fprintf(t.progress, "[e%2d][b%5d/%5d] loss: %7.4f\r", epoch, i+1, total, loss)
	}
	fmt.Fprintln(t.progress)

	m := checkpoint.EpochMetrics{
		Epoch:    epoch,
		Batches:  total,
		Pairs:    ds.Len(),
		Duration: time.Since(start).Seconds(),
	}
	if total > 0 {
		m.Loss = lossSum / float64(total)
	}
	return m, nil
}
