package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

var ErrInvalid = errors.New("invalid configuration")

// Config holds everything a training run needs. Field names follow the
// command-line flags.
type Config struct {
	Name       string  `toml:"name"`
	DataDir    string  `toml:"data_dir"`
	SaveDir    string  `toml:"save_dir"`
	EDim       int     `toml:"e_dim"`
	NNegs      int     `toml:"n_negs"`
	Epoch      int     `toml:"epoch"`
	MB         int     `toml:"mb"`
	SST        float64 `toml:"ss_t"`
	Conti      bool    `toml:"conti"`
	Weights    bool    `toml:"weights"`
	UnigramPow float64 `toml:"unigram_pow"`
	Cuda       bool    `toml:"cuda"`
	LR         float64 `toml:"lr"`
	Seed       int64   `toml:"seed"`
	LogLevel   string  `toml:"log_level"`
}

func Default() *Config {
	return &Config{
		Name:       "sgns",
		DataDir:    "./data/",
		SaveDir:    "./pts/",
		EDim:       300,
		NNegs:      20,
		Epoch:      10,
		MB:         4096,
		SST:        1e-5,
		UnigramPow: 1,
		LR:         1e-3,
		LogLevel:   "info",
	}
}

// Load decodes a TOML file on top of the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(err, "failed to stat config file")
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode config file %s", path)
	}
	return cfg, nil
}

// Save writes cfg as TOML, mostly so a run can be reproduced later.
func Save(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create config file")
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	return nil
}

func (c *Config) Validate() error {
	switch {
	case c.Name == "":
		return errors.Wrap(ErrInvalid, "name must not be empty")
	case c.DataDir == "":
		return errors.Wrap(ErrInvalid, "data_dir must not be empty")
	case c.SaveDir == "":
		return errors.Wrap(ErrInvalid, "save_dir must not be empty")
	case c.EDim <= 0:
		return errors.Wrapf(ErrInvalid, "e_dim must be positive, got %d", c.EDim)
	case c.NNegs <= 0:
		return errors.Wrapf(ErrInvalid, "n_negs must be positive, got %d", c.NNegs)
	case c.Epoch < 0:
		return errors.Wrapf(ErrInvalid, "epoch must not be negative, got %d", c.Epoch)
	case c.MB <= 0:
		return errors.Wrapf(ErrInvalid, "mb must be positive, got %d", c.MB)
	case c.SST < 0:
		return errors.Wrapf(ErrInvalid, "ss_t must not be negative, got %g", c.SST)
	case c.UnigramPow < 0:
		return errors.Wrapf(ErrInvalid, "unigram_pow must not be negative, got %g", c.UnigramPow)
	case c.LR <= 0:
		return errors.Wrapf(ErrInvalid, "lr must be positive, got %g", c.LR)
	}
	return nil
}

func (c *Config) TrainPath() string   { return filepath.Join(c.DataDir, "train.dat") }
func (c *Config) Idx2VecPath() string { return filepath.Join(c.DataDir, "idx2vec.dat") }

func (c *Config) ModelPath() string   { return filepath.Join(c.SaveDir, c.Name+".pt") }
func (c *Config) OptimPath() string   { return filepath.Join(c.SaveDir, c.Name+".optim.pt") }
func (c *Config) MetricsPath() string { return filepath.Join(c.SaveDir, c.Name+".metrics.json") }
