package model

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Sampler draws negative word ids, uniformly or proportionally to a weight
// vector.
type Sampler struct {
	vocab int
	cdf   []float64
	rng   *rand.Rand
}

// NewSampler returns a uniform sampler when weights is nil.
func NewSampler(vocab int, weights []float64, rng *rand.Rand) *Sampler {
	s := &Sampler{vocab: vocab, rng: rng}
	if weights != nil {
		s.cdf = floats.CumSum(make([]float64, len(weights)), weights)
	}
	return s
}

// UnigramWeights raises each frequency to pow. 1 keeps the raw unigram
// distribution, 0.75 flattens it toward rare words.
func UnigramWeights(freq []float64, pow float64) []float64 {
	w := make([]float64, len(freq))
	for i, f := range freq {
		w[i] = math.Pow(f, pow)
	}
	return w
}

func (s *Sampler) Draw(dst []int) {
	if s.cdf == nil {
		for i := range dst {
			dst[i] = s.rng.Intn(s.vocab)
		}
		return
	}
	total := s.cdf[len(s.cdf)-1]
	last := len(s.cdf) - 1
	for i := range dst {
		u := s.rng.Float64() * total
		// First entry whose cumulative weight exceeds u, so zero weights are never picked.
		k := sort.Search(len(s.cdf), func(j int) bool { return s.cdf[j] > u })
		if k > last {
			k = last
		}
		dst[i] = k
	}
}
