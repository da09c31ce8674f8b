package build

import (
	"github.com/spf13/cobra"

	"sgns/internal/corpus"
	"sgns/internal/log"
)

func BuildCmd() *cobra.Command {
	opts := corpus.DefaultBuildOptions()
	var dataDir string

	cmd := &cobra.Command{
		Use:   "build CORPUS",
		Short: "Build idx2word.dat, wc.dat, word2idx.dat and train.dat from a text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(args[0], dataDir, opts, log.Default())
		},
	}

	f := cmd.Flags()
	f.StringVar(&dataDir, "data_dir", "./data/", "output directory")
	f.IntVar(&opts.Window, "window", opts.Window, "context words on each side of the center word")
	f.IntVar(&opts.MaxVocab, "max_vocab", opts.MaxVocab, "maximum vocabulary size, unknown word included")
	f.StringVar(&opts.Unk, "unk", opts.Unk, "token standing for out-of-vocabulary words")

	return cmd
}

func Run(corpusPath, dataDir string, opts corpus.BuildOptions, logger log.Logger) error {
	logger.Info("building vocabulary from %s", corpusPath)
	b, err := corpus.BuildFile(corpusPath, opts)
	if err != nil {
		return err
	}
	if err := b.Save(dataDir); err != nil {
		return err
	}
	logger.Info("wrote %d words and %d pairs to %s", b.Vocab.Size(), len(b.Pairs), dataDir)
	return nil
}
