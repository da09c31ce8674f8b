package train

import (
	"context"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"sgns/internal/checkpoint"
	"sgns/internal/config"
	"sgns/internal/corpus"
	"sgns/internal/log"
	"sgns/internal/model"
	"sgns/internal/sysinfo"
	"sgns/internal/trainer"
)

func TrainCmd() *cobra.Command {
	flags := config.Default()
	var configPath string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train SGNS word embeddings",
		Long: `Train skip-gram embeddings with negative sampling from idx2word.dat,
wc.dat and train.dat in --data_dir. The embedding matrix is written to
<data_dir>/idx2vec.dat and the model and optimizer state to <save_dir>.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg, flags)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return Run(ctx, cfg, log.Default(), cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "TOML config file; flags given explicitly override it")
	f.StringVar(&flags.Name, "name", flags.Name, "model name")
	f.StringVar(&flags.DataDir, "data_dir", flags.DataDir, "data directory path")
	f.StringVar(&flags.SaveDir, "save_dir", flags.SaveDir, "model directory path")
	f.IntVar(&flags.EDim, "e_dim", flags.EDim, "embedding dimension")
	f.IntVar(&flags.NNegs, "n_negs", flags.NNegs, "number of negative samples")
	f.IntVar(&flags.Epoch, "epoch", flags.Epoch, "number of epochs")
	f.IntVar(&flags.MB, "mb", flags.MB, "mini-batch size")
	f.Float64Var(&flags.SST, "ss_t", flags.SST, "subsample threshold")
	f.BoolVar(&flags.Conti, "conti", flags.Conti, "continue learning")
	f.BoolVar(&flags.Weights, "weights", flags.Weights, "use weights for negative sampling")
	f.Float64Var(&flags.UnigramPow, "unigram_pow", flags.UnigramPow, "power applied to word frequencies for --weights")
	f.BoolVar(&flags.Cuda, "cuda", flags.Cuda, "use CUDA")
	f.Float64Var(&flags.LR, "lr", flags.LR, "Adam learning rate")
	f.Int64Var(&flags.Seed, "seed", flags.Seed, "random seed (0 picks one from the clock)")
	f.StringVar(&flags.LogLevel, "log_level", flags.LogLevel, "log level: trace, debug, info, warn, error")

	return cmd
}

func applyFlags(cmd *cobra.Command, cfg, flags *config.Config) {
	set := map[string]func(){
		"name":        func() { cfg.Name = flags.Name },
		"data_dir":    func() { cfg.DataDir = flags.DataDir },
		"save_dir":    func() { cfg.SaveDir = flags.SaveDir },
		"e_dim":       func() { cfg.EDim = flags.EDim },
		"n_negs":      func() { cfg.NNegs = flags.NNegs },
		"epoch":       func() { cfg.Epoch = flags.Epoch },
		"mb":          func() { cfg.MB = flags.MB },
		"ss_t":        func() { cfg.SST = flags.SST },
		"conti":       func() { cfg.Conti = flags.Conti },
		"weights":     func() { cfg.Weights = flags.Weights },
		"cuda":        func() { cfg.Cuda = flags.Cuda },
		"unigram_pow": func() { cfg.UnigramPow = flags.UnigramPow },
		"lr":          func() { cfg.LR = flags.LR },
		"seed":        func() { cfg.Seed = flags.Seed },
		"log_level":   func() { cfg.LogLevel = flags.LogLevel },
	}
	for name, apply := range set {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
}

// streamSeeds splits seed into one seed for the model (table init and
// negatives) and one for the data pipeline (subsampling and shuffling).
func streamSeeds(seed int64) (modelSeed, dataSeed int64) {
	r := rand.New(rand.NewSource(seed))
	return r.Int63(), r.Int63()
}

// Run performs one full training run described by cfg.
func Run(ctx context.Context, cfg *config.Config, logger log.Logger, progress io.Writer) error {
	logger.SetLevel(cfg.LogLevel)
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Cuda {
		logger.Warn("CUDA requested but this build runs on the CPU engine")
	}

	c, err := corpus.Load(cfg.DataDir, cfg.SST)
	if err != nil {
		return err
	}
	pairs, err := corpus.LoadPairs(cfg.TrainPath())
	if err != nil {
		return err
	}
	width, err := corpus.CheckPairs(pairs, c.Vocab.Size())
	if err != nil {
		return errors.Wrap(err, cfg.TrainPath())
	}
	if len(pairs) == 0 {
		return errors.Errorf("%s holds no training pairs", cfg.TrainPath())
	}
	logger.Info("loaded %d words and %d pairs (context %d) from %s", c.Vocab.Size(), len(pairs), width, cfg.DataDir)

	if err := os.MkdirAll(cfg.SaveDir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", cfg.SaveDir)
	}

	modelSeed, dataSeed := streamSeeds(cfg.Seed)
	runID := checkpoint.NewRunID()
	priorEpochs := 0
	mcfg := model.Config{
		VocabSize:   c.Vocab.Size(),
		Dim:         cfg.EDim,
		NNegs:       cfg.NNegs,
		BatchSize:   cfg.MB,
		ContextSize: width,
		Optim:       model.DefaultOptimState(cfg.LR),
		Seed:        modelSeed,
	}
	if cfg.Weights {
		mcfg.Weights = model.UnigramWeights(c.Freq, cfg.UnigramPow)
	}
	if cfg.Conti {
		saved, err := checkpoint.LoadModel(cfg.ModelPath())
		if err != nil {
			return err
		}
		optim, err := checkpoint.LoadOptim(cfg.OptimPath())
		if err != nil {
			return err
		}
		mcfg.Init = &saved.State
		mcfg.Optim = optim.State
		runID = saved.RunID
		priorEpochs = saved.Epochs
		logger.Info("resuming run %s after %d optimizer steps", runID, optim.State.Steps)
	}

	need := model.EstimateBytes(mcfg)
	if ok, avail, err := sysinfo.Fits(need); err != nil {
		logger.Debug("memory check skipped: %v", err)
	} else if !ok {
		logger.Warn("training may need %s but only %s is available; consider a smaller --mb",
			sysinfo.HumanBytes(need), sysinfo.HumanBytes(avail))
	}

	sgns, err := model.New(mcfg)
	if err != nil {
		return err
	}
	defer sgns.Close()

	var ws []float64
	if cfg.SST > 0 {
		ws = c.Subsample
	}
	rng := rand.New(rand.NewSource(dataSeed))
	tr := trainer.New(sgns, pairs, trainer.Options{
		Epochs:    cfg.Epoch,
		BatchSize: cfg.MB,
		Shuffle:   true,
		Subsample: ws,
	}, rng, logger, progress)

	metrics, err := tr.Run(ctx)
	if err != nil {
		return err
	}

	state := sgns.State()
	if err := checkpoint.SaveVectors(cfg.Idx2VecPath(), state.VocabSize, state.Dim, state.IVectors); err != nil {
		return err
	}
	now := time.Now()
	if err := checkpoint.SaveModel(cfg.ModelPath(), &checkpoint.Model{
		RunID: runID, SavedAt: now, Epochs: priorEpochs + cfg.Epoch, State: *state,
	}); err != nil {
		return err
	}
	if err := checkpoint.SaveOptim(cfg.OptimPath(), &checkpoint.Optim{
		RunID: runID, SavedAt: now, State: sgns.OptimState(),
	}); err != nil {
		return err
	}
	if err := checkpoint.SaveMetrics(cfg.MetricsPath(), &checkpoint.Metrics{RunID: runID, Epochs: metrics}); err != nil {
		return err
	}
	logger.Info("saved %s, %s and %s", cfg.Idx2VecPath(), cfg.ModelPath(), cfg.OptimPath())
	return nil
}
