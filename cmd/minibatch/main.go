package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"minibatch/internal/config"
	"minibatch/internal/dataset"
	"minibatch/internal/model"
	"minibatch/internal/trainer"
)

func main() {
	cfgPath := flag.String("config", "configs/demo.yaml", "Path to YAML config (empty for defaults)")
	dataPath := flag.String("data", "", "Override CSV file or directory")
	epochs := flag.Int("epochs", 0, "Number of passes over the data")
	batchSize := flag.Int("batch-size", 0, "Rows per mini-batch")
	lr := flag.Float64("lr", 0, "Learning rate")
	seed := flag.Int64("seed", 0, "Shuffle seed (0 uses the global source)")
	logEvery := flag.Int("log-every", 0, "Log every N steps")
	exactTail := flag.Bool("exact-tail", false, "Emit every row exactly once, no empty trailing batch")
	logLevel := flag.String("log-level", "", "Log level")

	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	cfg.ApplyOverrides(config.Overrides{
		DataPath:     *dataPath,
		Epochs:       *epochs,
		BatchSize:    *batchSize,
		LearningRate: *lr,
		Seed:         *seed,
		LogEvery:     *logEvery,
		ExactTail:    *exactTail,
		LogLevel:     *logLevel,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(cfg.Level())
	l, err := zcfg.Build()
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer l.Sync()

	var ds *dataset.Dataset
	if cfg.DataPath != "" {
		ds, err = dataset.Load(cfg.DataPath, cfg.NOutputs)
		if err != nil {
			l.Fatal("load dataset", zap.String("path", cfg.DataPath), zap.Error(err))
		}
		l.Info("dataset loaded", zap.String("path", cfg.DataPath), zap.Int("rows", ds.Rows))
	} else {
		ds = dataset.Synthetic(cfg.SyntheticRows, cfg.SyntheticInputs, cfg.Classes, rand.New(rand.NewSource(cfg.Seed)))
		l.Info("synthetic dataset", zap.Int("rows", ds.Rows), zap.Int("n_inputs", ds.NInputs))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCfg := trainer.RunConfig{
		Epochs:    cfg.Epochs,
		BatchSize: cfg.BatchSize,
		LogEvery:  cfg.LogEvery,
		Seed:      cfg.Seed,
		Tail:      cfg.Tail(),
	}
	mdl := model.NewSoftmax(cfg.Classes, ds.NInputs, ds.NOutputs, cfg.LearningRate, cfg.Seed)

	if _, err := trainer.Run(ctx, runCfg, ds, mdl, l); err != nil {
		l.Fatal("training failed", zap.Error(err))
	}
}
