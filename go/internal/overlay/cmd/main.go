package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mcdev12/uwh-display/go/internal/config"
	"github.com/mcdev12/uwh-display/go/internal/logging"
	"github.com/mcdev12/uwh-display/go/internal/overlay"
	"github.com/mcdev12/uwh-display/go/internal/teaminfo"
)

func main() {
	configPath := flag.String("config", "uwh-overlay.yaml", "path to the YAML config file")
	var verbose logging.Verbosity
	flag.Var(&verbose, "v", "increase log verbosity (repeatable)")
	flag.Parse()

	bootLogger := logging.Setup("overlay", "info", int(verbose))

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		bootLogger.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.Load(*configPath, bootLogger)
	if err != nil {
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	config.ApplyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		bootLogger.Fatal().Err(err).Msg("invalid config")
	}

	logger := logging.Setup("overlay", cfg.Log.Level, int(verbose))

	svcConfig := overlay.DefaultConfig(cfg.RefboxAddr())
	svcConfig.Link.Backoff = cfg.Link.Backoff
	svcConfig.Link.MaxFailures = cfg.Link.MaxFailures
	svcConfig.QueueCapacity = cfg.Handoff.Capacity
	svcConfig.FPS = cfg.Render.FPS
	svcConfig.HTTPAddr = cfg.HTTP.Addr
	svcConfig.LogoPath = cfg.Render.TournamentLogo
	svcConfig.NATSEnabled = cfg.NATS.Enabled
	svcConfig.NATS.URL = cfg.NATS.URL
	svcConfig.NATS.Subject = cfg.NATS.Subject

	var deps overlay.Deps
	if cfg.UWHScores.Enabled {
		deps.Fetcher = teaminfo.NewUWHScoresClient(cfg.UWHScores.URL, cfg.UWHScores.TournamentID, logger)
	}

	logger.Info().
		Str("config", *configPath).
		Str("refbox", cfg.RefboxAddr()).
		Bool("uwhscores", cfg.UWHScores.Enabled).
		Bool("nats", cfg.NATS.Enabled).
		Msg("starting uwh overlay")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := overlay.NewService(svcConfig, deps, logger).Run(ctx); err != nil {
		logger.Error().Err(err).Msg("overlay exiting")
		stop()
		os.Exit(1)
	}

	logger.Info().Msg("overlay shutdown complete")
}
