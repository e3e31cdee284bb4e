package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mcdev12/uwh-display/go/internal/config"
	"github.com/mcdev12/uwh-display/go/internal/link"
	"github.com/mcdev12/uwh-display/go/internal/logging"
	"github.com/mcdev12/uwh-display/go/internal/panelsim"
)

func main() {
	configPath := flag.String("config", "uwh-panelsim.yaml", "path to the YAML config file")
	port := flag.Int("port", 0, "refbox TCP port on localhost, overrides the config file")
	var verbose logging.Verbosity
	flag.Var(&verbose, "v", "increase log verbosity (repeatable)")
	flag.Parse()

	bootLogger := logging.Setup("panelsim", "info", int(verbose))

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		bootLogger.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.Load(*configPath, bootLogger)
	if err != nil {
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	config.ApplyEnv(&cfg)
	if *port != 0 {
		cfg.Refbox.Host = "localhost"
		cfg.Refbox.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		bootLogger.Fatal().Err(err).Msg("invalid config")
	}

	logger := logging.Setup("panelsim", cfg.Log.Level, int(verbose))

	addr := net.JoinHostPort(cfg.Refbox.Host, strconv.Itoa(cfg.Refbox.Port))
	linkCfg := link.Config{Addr: addr, Backoff: cfg.Link.Backoff, MaxFailures: cfg.Link.MaxFailures}
	obs := link.LogObserver{Logger: logger.With().Str("component", "link").Logger(), Backoff: linkCfg.Backoff}
	machine := link.NewMachine(linkCfg, nil, nil, obs)

	app := panelsim.NewApp(machine, panelsim.LogPanel{Logger: logger}, nil, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("refbox", addr).Msg("starting panel simulator")
	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		stop()
		os.Exit(1)
	}
}
