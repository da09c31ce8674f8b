package similar

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"sgns/internal/checkpoint"
	"sgns/internal/corpus"
	"sgns/internal/vectors"
)

func SimilarCmd() *cobra.Command {
	var (
		dataDir string
		topK    int
	)

	cmd := &cobra.Command{
		Use:   "similar WORD...",
		Short: "Print the nearest words by cosine similarity of trained embeddings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := Load(dataDir)
			if err != nil {
				return err
			}
			return Print(cmd.OutOrStdout(), table, args, topK)
		},
	}

	cmd.Flags().StringVar(&dataDir, "data_dir", "./data/", "directory holding idx2word.dat and idx2vec.dat")
	cmd.Flags().IntVarP(&topK, "top", "k", 10, "number of neighbours to print")
	return cmd
}

// Load reads idx2word.dat and idx2vec.dat from dataDir.
func Load(dataDir string) (*vectors.Table, error) {
	vocab, err := corpus.LoadVocabulary(filepath.Join(dataDir, "idx2word.dat"))
	if err != nil {
		return nil, err
	}
	m, err := checkpoint.LoadVectors(filepath.Join(dataDir, "idx2vec.dat"))
	if err != nil {
		return nil, err
	}
	return vectors.New(vocab, m.Shape()[1], m.Data().([]float32))
}

func Print(w io.Writer, table *vectors.Table, words []string, k int) error {
	for _, word := range words {
		neighbors, err := table.Nearest(word, k)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s:\n", word)
		for _, n := range neighbors {
			fmt.Fprintf(w, "  %-20s %.4f\n", n.Word, n.Similarity)
		}
	}
	return nil
}
