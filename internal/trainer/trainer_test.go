package trainer

import (
	"bytes"
	"context"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sgns/internal/dataset"
	"sgns/internal/log"
)

type fakeModel struct {
	losses  []float64
	steps   int
	batches []*dataset.Batch
	failAt  int
	ret     float64
}

func (f *fakeModel) Loss(b *dataset.Batch) (float64, error) {
	f.batches = append(f.batches, b)
	if f.failAt > 0 && len(f.batches) == f.failAt {
		return 0, errors.New("boom")
	}
	loss := f.ret
	if loss == 0 {
		loss = 1 / float64(len(f.batches))
	}
	f.losses = append(f.losses, loss)
	return loss, nil
}

func (f *fakeModel) Step() error {
	f.steps++
	return nil
}

func pairs(n int) []dataset.Pair {
	out := make([]dataset.Pair, n)
	for i := range out {
		out[i] = dataset.Pair{Center: i % 3, Context: []int{0, 1}}
	}
	return out
}

func TestRunVisitsEveryBatchEveryEpoch(t *testing.T) {
	m := &fakeModel{}
	var progress bytes.Buffer
	tr := New(m, pairs(10), Options{Epochs: 3, BatchSize: 4, Shuffle: true},
		rand.New(rand.NewSource(1)), log.Discard(), &progress)

	metrics, err := tr.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, metrics, 3)
	assert.Equal(t, 9, m.steps)
	assert.Len(t, m.batches, 9)
	for i, em := range metrics {
		assert.Equal(t, i+1, em.Epoch)
		assert.Equal(t, 3, em.Batches)
		assert.Equal(t, 10, em.Pairs)
	}
	assert.InDelta(t, (1.0+1.0/2+1.0/3)/3, metrics[0].Loss, 1e-9)

	out := progress.String()
	assert.Contains(t, out, "[e 1][b    1/    3] loss:  1.0000\r")
	assert.Contains(t, out, "[e 3][b    3/    3]")
	assert.Equal(t, 3, strings.Count(out, "\n"))
}

func TestRunSubsamplesEachEpoch(t *testing.T) {
	m := &fakeModel{}
	tr := New(m, pairs(9), Options{Epochs: 2, BatchSize: 100, Subsample: []float64{1, 0, 0}},
		rand.New(rand.NewSource(1)), log.Discard(), nil)

	metrics, err := tr.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	for _, em := range metrics {
		assert.Equal(t, 6, em.Pairs)
	}
	for _, b := range m.batches {
		for _, c := range b.Centers {
			assert.NotEqual(t, 0, c)
		}
	}
}

func TestRunEmptyEpoch(t *testing.T) {
	m := &fakeModel{}
	tr := New(m, pairs(3), Options{Epochs: 1, BatchSize: 2, Subsample: []float64{1, 1, 1}},
		rand.New(rand.NewSource(1)), log.Discard(), nil)

	metrics, err := tr.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Zero(t, metrics[0].Batches)
	assert.Zero(t, m.steps)
}

func TestRunStopsOnModelError(t *testing.T) {
	m := &fakeModel{failAt: 2}
	tr := New(m, pairs(10), Options{Epochs: 2, BatchSize: 4},
		rand.New(rand.NewSource(1)), log.Discard(), nil)

	_, err := tr.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "epoch 1 batch 2")
	assert.Equal(t, 1, m.steps)
}

func TestRunRejectsNonFiniteLoss(t *testing.T) {
	m := &fakeModel{ret: math.NaN()}
	tr := New(m, pairs(4), Options{Epochs: 1, BatchSize: 4},
		rand.New(rand.NewSource(1)), log.Discard(), nil)

	_, err := tr.Run(context.Background())
	assert.True(t, errors.Is(err, ErrNonFiniteLoss))
	assert.Zero(t, m.steps)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := &fakeModel{}
	tr := New(m, pairs(4), Options{Epochs: 1, BatchSize: 2},
		rand.New(rand.NewSource(1)), log.Discard(), nil)

	_, err := tr.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, m.batches)
}
