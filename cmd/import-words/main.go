// Package main imports YAML word lists into the words table used by the
// postgres dictionary source.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/wordrace/internal/config"
	"github.com/cory-johannsen/wordrace/internal/game/dictionary"
	"github.com/cory-johannsen/wordrace/internal/observability"
	"github.com/cory-johannsen/wordrace/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	sourceDir := flag.String("source", "", "directory of YAML word lists (defaults to dictionary.dir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	dir := *sourceDir
	if dir == "" {
		dir = cfg.Dictionary.Dir
	}

	start := time.Now()
	lists, err := dictionary.LoadDir(dir)
	if err != nil {
		logger.Fatal("loading word lists", zap.String("dir", dir), zap.Error(err))
	}

	ctx := context.Background()
	pool, err := postgres.Connect(ctx, cfg.Database, cfg.Retry, logger)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()

	repo := postgres.NewWordRepository(pool.DB(), dictionary.NewCryptoSource())
	total := 0
	for _, wl := range lists {
		n, err := repo.Import(ctx, wl)
		if err != nil {
			logger.Fatal("importing word list", zap.String("language", wl.Language), zap.Error(err))
		}
		logger.Info("word list imported",
			zap.String("language", wl.Language),
			zap.Int("words", n),
		)
		total += n
	}
	fmt.Printf("imported %d words from %d lists in %s\n", total, len(lists), time.Since(start).Round(time.Millisecond))
}
