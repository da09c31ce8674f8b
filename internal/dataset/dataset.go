package dataset

import (
	"math/rand"
)

// Pair is one skip-gram training example: a center word and the words
// around it.
type Pair struct {
	Center  int
	Context []int
}

// Dataset is the per-epoch view of the training pairs after subsampling.
// It is rebuilt every epoch, never mutated.
type Dataset struct {
	pairs []Pair
}

// New filters pairs by the drop probability of their center word. A pair is
// kept when a uniform draw is strictly greater than ws[center], so ws = 0
// keeps everything and ws = 1 drops everything. A nil ws keeps all pairs.
func New(pairs []Pair, ws []float64, rng *rand.Rand) *Dataset {
	if ws == nil {
		return &Dataset{pairs: pairs}
	}
	kept := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		if rng.Float64() > ws[p.Center] {
			kept = append(kept, p)
		}
	}
	return &Dataset{pairs: kept}
}

func (d *Dataset) Len() int { return len(d.pairs) }

// At returns the center id and a copy of the context ids of pair i.
func (d *Dataset) At(i int) (int, []int) {
	p := d.pairs[i]
	return p.Center, append([]int(nil), p.Context...)
}
