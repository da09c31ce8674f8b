package dataset

import (
	"math/rand"
)

// Batch is a group of pairs trained together. Every context has the same
// length.
type Batch struct {
	Centers  []int
	Contexts [][]int
}

func (b *Batch) Size() int { return len(b.Centers) }

// Loader walks a Dataset in minibatches, in a fresh random order per pass
// when shuffling is on. The last batch may be short.
type Loader struct {
	ds      *Dataset
	size    int
	shuffle bool
	rng     *rand.Rand
}

func NewLoader(ds *Dataset, size int, shuffle bool, rng *rand.Rand) *Loader {
	if size <= 0 {
		size = 1
	}
	return &Loader{ds: ds, size: size, shuffle: shuffle, rng: rng}
}

func (l *Loader) NumBatches() int {
	return (l.ds.Len() + l.size - 1) / l.size
}

// Batches materialises one pass over the dataset.
func (l *Loader) Batches() []*Batch {
	order := make([]int, l.ds.Len())
	for i := range order {
		order[i] = i
	}
	if l.shuffle {
		l.rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	batches := make([]*Batch, 0, l.NumBatches())
	for i := 0; i < len(order); i += l.size {
		j := i + l.size
		if j > len(order) {
			j = len(order)
		}
		b := &Batch{
			Centers:  make([]int, j-i),
			Contexts: make([][]int, j-i),
		}
		for k := i; k < j; k++ {
			b.Centers[k-i], b.Contexts[k-i] = l.ds.At(order[k])
		}
		batches = append(batches, b)
	}
	return batches
}
