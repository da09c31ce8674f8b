package dataset

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePairs() []Pair {
	return []Pair{
		{Center: 0, Context: []int{1, 2}},
		{Center: 1, Context: []int{0, 2}},
		{Center: 2, Context: []int{0, 1}},
		{Center: 1, Context: []int{2, 2}},
		{Center: 0, Context: []int{1, 1}},
	}
}

func TestNewWithoutSubsampling(t *testing.T) {
	ds := New(samplePairs(), nil, nil)
	assert.Equal(t, 5, ds.Len())
}

func TestNewZeroProbabilityKeepsAll(t *testing.T) {
	pairs := samplePairs()
	ds := New(pairs, []float64{0, 0, 0}, rand.New(rand.NewSource(1)))
	require.Equal(t, len(pairs), ds.Len())
	for i, p := range pairs {
		c, ctx := ds.At(i)
		assert.Equal(t, p.Center, c)
		assert.Equal(t, p.Context, ctx)
	}
}

func TestNewOneProbabilityDropsAll(t *testing.T) {
	ds := New(samplePairs(), []float64{1, 1, 1}, rand.New(rand.NewSource(1)))
	assert.Equal(t, 0, ds.Len())
}

func TestNewDropsOnlyTargetedWords(t *testing.T) {
	ds := New(samplePairs(), []float64{0, 1, 0}, rand.New(rand.NewSource(1)))
	require.Equal(t, 3, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		c, _ := ds.At(i)
		assert.NotEqual(t, 1, c)
	}
}

func TestNewFreshDrawPerCall(t *testing.T) {
	pairs := make([]Pair, 1000)
	for i := range pairs {
		pairs[i] = Pair{Center: 0, Context: []int{0}}
	}
	rng := rand.New(rand.NewSource(42))
	a := New(pairs, []float64{0.5}, rng).Len()
	b := New(pairs, []float64{0.5}, rng).Len()
	assert.InDelta(t, 500, a, 100)
	assert.InDelta(t, 500, b, 100)
}

func TestAtReturnsCopy(t *testing.T) {
	pairs := samplePairs()
	ds := New(pairs, nil, nil)
	_, ctx := ds.At(0)
	require.Len(t, ctx, len(pairs[0].Context))
	ctx[0] = 99
	_, again := ds.At(0)
	assert.Equal(t, 1, again[0])
}

func TestLoaderCoversDatasetOnce(t *testing.T) {
	ds := New(samplePairs(), nil, nil)
	l := NewLoader(ds, 2, true, rand.New(rand.NewSource(3)))
	assert.Equal(t, 3, l.NumBatches())

	batches := l.Batches()
	require.Len(t, batches, 3)
	assert.Equal(t, 2, batches[0].Size())
	assert.Equal(t, 2, batches[1].Size())
	assert.Equal(t, 1, batches[2].Size())

	var seen []int
	for _, b := range batches {
		for i := range b.Centers {
			require.Len(t, b.Contexts[i], 2)
			seen = append(seen, b.Centers[i])
		}
	}
	sort.Ints(seen)
	assert.Equal(t, []int{0, 0, 1, 1, 2}, seen)
}

func TestLoaderWithoutShuffleKeepsOrder(t *testing.T) {
	ds := New(samplePairs(), nil, nil)
	batches := NewLoader(ds, 10, false, nil).Batches()
	require.Len(t, batches, 1)
	assert.Equal(t, []int{0, 1, 2, 1, 0}, batches[0].Centers)
}

func TestLoaderEmptyDataset(t *testing.T) {
	ds := New(nil, nil, nil)
	l := NewLoader(ds, 4, true, rand.New(rand.NewSource(1)))
	assert.Zero(t, l.NumBatches())
	assert.Empty(t, l.Batches())
}
