package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sgns/internal/corpus"
)

func TestBuildCmd(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "corpus.txt")
	require.NoError(t, os.WriteFile(src, []byte("a b c a\nb a\n"), 0o644))
	out := filepath.Join(dir, "data")

	cmd := BuildCmd()
	cmd.SetArgs([]string{src, "--data_dir", out, "--window", "2"})
	require.NoError(t, cmd.Execute())

	for _, name := range []string{"idx2word.dat", "wc.dat", "word2idx.dat", "train.dat"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}

	c, err := corpus.Load(out, 1e-5)
	require.NoError(t, err)
	assert.Equal(t, []string{"<UNK>", "a", "b", "c"}, c.Vocab.Words())

	pairs, err := corpus.LoadPairs(filepath.Join(out, "train.dat"))
	require.NoError(t, err)
	require.Len(t, pairs, 6)
	assert.Len(t, pairs[0].Context, 4)
}

func TestBuildCmdMissingCorpus(t *testing.T) {
	cmd := BuildCmd()
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "absent.txt")})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	assert.Error(t, cmd.Execute())
}
