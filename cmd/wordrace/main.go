// Package main provides the wordrace bot binary: it connects to Discord and
// runs multiplayer word race sessions.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/cory-johannsen/wordrace/internal/config"
	"github.com/cory-johannsen/wordrace/internal/game/dictionary"
	"github.com/cory-johannsen/wordrace/internal/game/locale"
	"github.com/cory-johannsen/wordrace/internal/game/match"
	"github.com/cory-johannsen/wordrace/internal/game/render"
	"github.com/cory-johannsen/wordrace/internal/observability"
	"github.com/cory-johannsen/wordrace/internal/scripting"
	"github.com/cory-johannsen/wordrace/internal/server"
	"github.com/cory-johannsen/wordrace/internal/storage/postgres"
	"github.com/cory-johannsen/wordrace/internal/transport/discord"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	memoryStore := flag.Bool("memory-store", false, "keep session snapshots in memory instead of postgres")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Discord.Token == "" {
		logger.Fatal("discord.token must be set (WORDRACE_DISCORD_TOKEN)")
	}

	logger.Info("starting wordrace",
		zap.String("name", cfg.Server.Name),
		zap.String("dictionary", cfg.Dictionary.Source),
	)

	catalog, err := loadCatalog(cfg.Locale.Dir)
	if err != nil {
		logger.Fatal("loading locale catalogs", zap.Error(err))
	}
	logger.Info("locale catalogs loaded", zap.Strings("locales", catalog.Locales()))

	// Postgres is only needed when it backs the words or the snapshots.
	var pool *postgres.Pool
	if cfg.Dictionary.Source == "postgres" || !*memoryStore {
		dbStart := time.Now()
		pool, err = postgres.Connect(ctx, cfg.Database, cfg.Retry, logger)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
	}

	words, err := loadDictionary(ctx, cfg.Dictionary, pool, logger)
	if err != nil {
		logger.Fatal("loading dictionary", zap.Error(err))
	}

	var store match.Store = match.NewMemoryStore()
	if !*memoryStore {
		store = postgres.NewSessionRepository(pool.DB())
	}

	var formatter match.ResultFormatter
	if cfg.Game.ResultScript != "" {
		rs, err := scripting.LoadResultScript(cfg.Game.ResultScript, cfg.Game.ScriptInstructionLimit, logger)
		if err != nil {
			logger.Fatal("loading result script", zap.String("path", cfg.Game.ResultScript), zap.Error(err))
		}
		defer rs.Close()
		rs.Text = catalog.Text
		formatter = rs
		logger.Info("result script loaded", zap.String("path", cfg.Game.ResultScript))
	}

	dg, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		logger.Fatal("creating discord session", zap.Error(err))
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

	opener := discord.NewOpener(dg)
	retry := match.RetryPolicy{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
	}
	engine := match.NewEngine(match.Deps{
		Dictionary:   words,
		Opener:       opener,
		Resolver:     opener,
		Renderer:     render.NewRenderer(cfg.Game.DefaultTheme),
		Store:        store,
		Localizer:    catalog,
		Retry:        retry,
		TransientTTL: cfg.Game.TransientErrorTTL,
		DefaultTheme: cfg.Game.DefaultTheme,
		Limits: match.Limits{
			MinLength:    cfg.Game.MinLength,
			MaxLength:    cfg.Game.MaxLength,
			MaxUserLimit: cfg.Game.MaxUserLimit,
		},
		Logger: logger,
	})
	engine.Register(match.TeamRaceType, func() match.Variant {
		return match.NewTeamRace(formatter, logger)
	})

	handler := discord.NewHandler(engine, dg, catalog, cfg.Discord.CommandPrefix, discord.Defaults{
		GameType:  match.TeamRaceType,
		Language:  cfg.Game.DefaultLanguage,
		Length:    cfg.Game.DefaultLength,
		UserLimit: cfg.Game.DefaultUserLimit,
		Locale:    cfg.Locale.Default,
	}, logger)
	dg.AddHandler(handler.OnMessageCreate)

	lifecycle := server.NewLifecycle(logger, cfg.Server.ShutdownTimeout)
	if pool != nil {
		lifecycle.Add("postgres", server.FuncComponent{
			OpenFn: func(ctx context.Context) error {
				return pool.Health(ctx, 5*time.Second)
			},
			CloseFn: func(context.Context) error {
				pool.Close()
				return nil
			},
		})
	}
	lifecycle.Add("engine", server.FuncComponent{
		OpenFn: func(ctx context.Context) error {
			_, err := engine.Restore(ctx)
			return err
		},
		CloseFn: func(ctx context.Context) error {
			engine.Shutdown(ctx)
			return nil
		},
	})
	lifecycle.Add("discord", server.FuncComponent{
		OpenFn: func(context.Context) error { return dg.Open() },
		CloseFn: func(context.Context) error {
			return dg.Close()
		},
	})

	logger.Info("wordrace initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Strings("game_types", engine.GameTypes()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("lifecycle error", zap.Error(err))
		os.Exit(1)
	}
}

// loadCatalog layers dir over the embedded catalogs when dir exists.
func loadCatalog(dir string) (*locale.Catalog, error) {
	if dir == "" {
		return locale.LoadEmbedded()
	}
	if info, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) || (err == nil && !info.IsDir()) {
		return locale.LoadEmbedded()
	}
	return locale.LoadDir(dir)
}

func loadDictionary(ctx context.Context, cfg config.DictionaryConfig, pool *postgres.Pool, logger *zap.Logger) (match.Dictionary, error) {
	src := dictionary.NewCryptoSource()
	switch cfg.Source {
	case "postgres":
		repo := postgres.NewWordRepository(pool.DB(), src)
		langs, err := repo.Languages(ctx)
		if err != nil {
			return nil, err
		}
		if len(langs) == 0 {
			return nil, fmt.Errorf("words table is empty; run import-words first")
		}
		logger.Info("dictionary ready", zap.String("source", "postgres"), zap.Strings("languages", langs))
		return repo, nil
	default:
		lists, err := dictionary.LoadDir(cfg.Dir)
		if err != nil {
			return nil, err
		}
		d, err := dictionary.New(lists, src, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("dictionary ready", zap.String("source", cfg.Dir), zap.Strings("languages", d.Languages()))
		return d, nil
	}
}
