package vectors

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"sgns/internal/corpus"
)

// Neighbor is a word and its cosine similarity to a query.
type Neighbor struct {
	Word       string
	Similarity float64
}

// Table is a trained embedding matrix with its vocabulary. Rows are stored
// unit-normalised so similarity is a dot product.
type Table struct {
	vocab *corpus.Vocabulary
	rows  [][]float64
}

func New(vocab *corpus.Vocabulary, dim int, data []float32) (*Table, error) {
	if dim <= 0 || len(data) != vocab.Size()*dim {
		return nil, errors.Errorf("%d values do not form a %dx%d matrix", len(data), vocab.Size(), dim)
	}
	rows := make([][]float64, vocab.Size())
	for i := range rows {
		row := make([]float64, dim)
		for j := range row {
			row[j] = float64(data[i*dim+j])
		}
		if n := floats.Norm(row, 2); n > 0 {
			floats.Scale(1/n, row)
		}
		rows[i] = row
	}
	return &Table{vocab: vocab, rows: rows}, nil
}

func (t *Table) Vector(word string) ([]float64, bool) {
	id, ok := t.vocab.Index(word)
	if !ok {
		return nil, false
	}
	return append([]float64(nil), t.rows[id]...), true
}

// Similarity is the cosine similarity of two vocabulary words.
func (t *Table) Similarity(a, b string) (float64, error) {
	va, ok := t.Vector(a)
	if !ok {
		return 0, errors.Wrap(corpus.ErrUnknownWord, a)
	}
	vb, ok := t.Vector(b)
	if !ok {
		return 0, errors.Wrap(corpus.ErrUnknownWord, b)
	}
	return floats.Dot(va, vb), nil
}

// Nearest returns the k words most similar to word, most similar first.
// The word itself is left out.
func (t *Table) Nearest(word string, k int) ([]Neighbor, error) {
	id, ok := t.vocab.Index(word)
	if !ok {
		return nil, errors.Wrap(corpus.ErrUnknownWord, word)
	}
	q := t.rows[id]
	out := make([]Neighbor, 0, t.vocab.Size()-1)
	for i, row := range t.rows {
		if i == id {
			continue
		}
		out = append(out, Neighbor{Word: t.vocab.Word(i), Similarity: floats.Dot(q, row)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if k >= 0 && k < len(out) {
		out = out[:k]
	}
	return out, nil
}
