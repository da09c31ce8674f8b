package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sgns/cmd/build"
	"sgns/cmd/similar"
	"sgns/cmd/train"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "sgns",
		Short:         "Skip-gram word embeddings with negative sampling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		train.TrainCmd(),
		build.BuildCmd(),
		similar.SimilarCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
