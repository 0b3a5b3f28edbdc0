package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"minibatch/internal/batch"
)

// EnvPrefix namespaces environment overrides, e.g. MINIBATCH_BATCH_SIZE.
const EnvPrefix = "MINIBATCH"

// Config captures the runtime knobs for a training run.
type Config struct {
	DataPath        string  `mapstructure:"data_path"`
	Epochs          int     `mapstructure:"epochs"`
	BatchSize       int     `mapstructure:"batch_size"`
	NOutputs        int     `mapstructure:"n_outputs"`
	Classes         int     `mapstructure:"classes"`
	LearningRate    float64 `mapstructure:"learning_rate"`
	Seed            int64   `mapstructure:"seed"`
	LogEvery        int     `mapstructure:"log_every"`
	ExactTail       bool    `mapstructure:"exact_tail"`
	LogLevel        string  `mapstructure:"log_level"`
	SyntheticRows   int     `mapstructure:"synthetic_rows"`
	SyntheticInputs int     `mapstructure:"synthetic_inputs"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	DataPath     string
	Epochs       int
	BatchSize    int
	LearningRate float64
	Seed         int64
	LogEvery     int
	ExactTail    bool
	LogLevel     string
}

// Load reads a Config from the YAML file at path, layered over defaults and
// under MINIBATCH_* environment variables. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_path", "")
	v.SetDefault("epochs", 10)
	v.SetDefault("batch_size", 32)
	v.SetDefault("n_outputs", 1)
	v.SetDefault("classes", 2)
	v.SetDefault("learning_rate", 0.05)
	v.SetDefault("seed", 0)
	v.SetDefault("log_every", 50)
	v.SetDefault("exact_tail", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("synthetic_rows", 1000)
	v.SetDefault("synthetic_inputs", 2)
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataPath != "" {
		c.DataPath = o.DataPath
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.ExactTail {
		c.ExactTail = true
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.NOutputs <= 0 {
		return fmt.Errorf("n_outputs must be > 0 (got %d)", c.NOutputs)
	}
	if c.Classes < 2 {
		return fmt.Errorf("classes must be >= 2 (got %d)", c.Classes)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be > 0 (got %g)", c.LearningRate)
	}
	if c.DataPath == "" && (c.SyntheticRows <= 0 || c.SyntheticInputs <= 0) {
		return errors.New("synthetic_rows and synthetic_inputs must be > 0 when data_path is empty")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 50
	}
	return nil
}

// Tail maps ExactTail onto the partitioner's trailing-batch policy.
func (c *Config) Tail() batch.Tail {
	if c.ExactTail {
		return batch.TailExact
	}
	return batch.TailLoop
}

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
