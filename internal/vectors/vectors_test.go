package vectors

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sgns/internal/corpus"
)

func testTable(t *testing.T) *Table {
	vocab := corpus.NewVocabulary([]string{"king", "queen", "apple", "pear"})
	table, err := New(vocab, 2, []float32{
		1, 0.1,
		0.9, 0.2,
		-0.1, 1,
		0, 2,
	})
	require.NoError(t, err)
	return table
}

func TestNearest(t *testing.T) {
	table := testTable(t)

	got, err := table.Nearest("king", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "queen", got[0].Word)
	assert.Greater(t, got[0].Similarity, got[1].Similarity)

	got, err = table.Nearest("apple", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "pear", got[0].Word)
}

func TestSimilarity(t *testing.T) {
	table := testTable(t)
	s, err := table.Similarity("pear", "pear")
	require.NoError(t, err)
	assert.InDelta(t, 1, s, 1e-9)

	s, err = table.Similarity("king", "pear")
	require.NoError(t, err)
	assert.InDelta(t, 0.0995, s, 1e-3)
}

func TestUnknownWord(t *testing.T) {
	table := testTable(t)
	_, err := table.Nearest("plum", 3)
	assert.True(t, errors.Is(err, corpus.ErrUnknownWord))
	_, err = table.Similarity("king", "plum")
	assert.True(t, errors.Is(err, corpus.ErrUnknownWord))
}

func TestNewShapeMismatch(t *testing.T) {
	_, err := New(corpus.NewVocabulary([]string{"a"}), 2, []float32{1})
	assert.Error(t, err)
}
