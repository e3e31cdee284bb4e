package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/uwh-display/go/internal/feed"
	"github.com/mcdev12/uwh-display/go/internal/logging"
	"github.com/mcdev12/uwh-display/go/internal/teaminfo"
)

func main() {
	listen := flag.String("listen", ":8000", "address displays connect to")
	scenarioPath := flag.String("scenario", "scenario.yaml", "YAML scenario to replay")
	waitClient := flag.Bool("wait", true, "wait for the first display before playing")
	teamsPath := flag.String("teams", "", "YAML team list to publish over NATS before playing")
	natsURL := flag.String("nats", "", "NATS server for -teams (defaults to NATS_URL or localhost)")
	var verbose logging.Verbosity
	flag.Var(&verbose, "v", "increase log verbosity (repeatable)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		envLogger := logging.Setup("feed", "info", int(verbose))
		envLogger.Warn().Err(err).Msg("could not load .env file")
	}
	logger := logging.Setup("feed", os.Getenv("LOG_LEVEL"), int(verbose))

	sc, err := feed.LoadScenario(*scenarioPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *scenarioPath).Msg("failed to load scenario")
	}

	if *teamsPath != "" {
		if err := publishTeams(*teamsPath, *natsURL, logger); err != nil {
			logger.Fatal().Err(err).Str("path", *teamsPath).Msg("failed to publish team info")
		}
	}

	b := feed.NewBroadcaster(*listen, logger)
	if err := b.Listen(); err != nil {
		logger.Fatal().Err(err).Msg("failed to listen")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	playCtx, donePlaying := context.WithCancel(gctx)

	g.Go(func() error {
		return b.Serve(playCtx)
	})
	g.Go(func() error {
		// closing the listener and clients tells displays the game is over
		defer donePlaying()
		if *waitClient {
			logger.Info().Str("addr", b.Addr()).Msg("waiting for a display to connect")
			if err := b.WaitForClient(playCtx); err != nil {
				return err
			}
		}
		logger.Info().Str("scenario", sc.Name).Int("steps", len(sc.Steps)).Msg("playing scenario")
		return feed.NewPlayer(nil, logger).Play(playCtx, sc, b.Publish)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("feed exiting")
		stop()
		os.Exit(1)
	}
	logger.Info().Msg("scenario finished")
}

func publishTeams(path, url string, logger zerolog.Logger) error {
	games, err := teaminfo.LoadTeams(path)
	if err != nil {
		return err
	}

	cfg := teaminfo.DefaultSubscriberConfig()
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.URL = v
	}
	if v := os.Getenv("NATS_SUBJECT"); v != "" {
		cfg.Subject = v
	}
	if url != "" {
		cfg.URL = url
	}
	// fail fast rather than retry forever before the scenario starts
	cfg.MaxReconnects = 0

	pub, err := teaminfo.NewPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer pub.Close()

	for _, g := range games {
		if err := pub.Publish(g); err != nil {
			return err
		}
	}
	return nil
}
