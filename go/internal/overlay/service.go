// Package overlay is the broadcast overlay service: a dedicated goroutine
// keeps the refbox link alive and feeds the render loop, whose screens are
// published as JSON to browser sources over websockets.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/uwh-display/go/internal/display"
	"github.com/mcdev12/uwh-display/go/internal/handoff"
	"github.com/mcdev12/uwh-display/go/internal/link"
	"github.com/mcdev12/uwh-display/go/internal/teaminfo"
)

// Config holds configuration for the overlay service
type Config struct {
	Link             link.Config
	QueueCapacity    int
	FPS              int
	HTTPAddr         string // empty disables the HTTP server
	LogoPath         string
	ConnectionConfig ConnectionConfig

	// NATS is used only when NATSEnabled is set
	NATSEnabled bool
	NATS        teaminfo.SubscriberConfig
}

// DefaultConfig returns default configuration for a refbox at addr
func DefaultConfig(addr string) Config {
	return Config{
		Link:             link.DefaultConfig(addr),
		QueueCapacity:    handoff.DefaultCapacity,
		FPS:              60,
		HTTPAddr:         ":8081",
		ConnectionConfig: DefaultConnectionConfig(),
		NATS:             teaminfo.DefaultSubscriberConfig(),
	}
}

// Deps are the service's replaceable collaborators. Zero values are fine.
type Deps struct {
	Dialer  link.Dialer
	Clock   clockwork.Clock
	Fetcher teaminfo.Fetcher
	Decoder display.FlagDecoder
}

type Service struct {
	config Config
	logger zerolog.Logger

	machine           *link.Machine
	queue             *handoff.Queue[display.Update]
	feed              *Feed
	loop              *display.Loop
	renderer          *ViewRenderer
	connectionManager *ConnectionManager
	handler           *Handler
	teams             *teaminfo.Cache
	subscriber        *teaminfo.Subscriber
}

func NewService(config Config, deps Deps, logger zerolog.Logger) *Service {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	obs := link.LogObserver{
		Logger:  logger.With().Str("component", "link").Logger(),
		Backoff: config.Link.Backoff,
	}
	machine := link.NewMachine(config.Link, deps.Dialer, deps.Clock, obs)
	queue := handoff.New[display.Update](config.QueueCapacity)

	teams := teaminfo.NewCache(deps.Fetcher, deps.Clock, logger.With().Str("component", "teaminfo").Logger())
	var subscriber *teaminfo.Subscriber
	if config.NATSEnabled {
		subscriber = teaminfo.NewSubscriber(teams, config.NATS, logger)
	}

	connectionManager := NewConnectionManager(config.ConnectionConfig, logger)
	renderer := NewViewRenderer(connectionManager, logger)
	feed := NewFeed(machine, queue, teams, logger)

	loop := display.NewLoop(display.LoopConfig{
		Queue:    queue,
		Feed:     feed,
		Renderer: renderer,
		Decoder:  deps.Decoder,
		Clock:    deps.Clock,
		FPS:      config.FPS,
		Logger:   logger.With().Str("component", "render_loop").Logger(),
	})

	return &Service{
		config:            config,
		logger:            logger,
		machine:           machine,
		queue:             queue,
		feed:              feed,
		loop:              loop,
		renderer:          renderer,
		connectionManager: connectionManager,
		handler:           NewHandler(connectionManager, renderer, config.LogoPath, logger),
		teams:             teams,
		subscriber:        subscriber,
	}
}

// Run starts every component and blocks until the feed ends or ctx is
// cancelled. It returns nil on cancellation and the render loop's
// ErrFeedStopped or ErrFeedDied otherwise.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info().
		Str("refbox", s.config.Link.Addr).
		Str("http_addr", s.config.HTTPAddr).
		Int("fps", s.config.FPS).
		Msg("starting overlay service")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.connectionManager.Start(gctx)
		return nil
	})

	// the feed reports through the render loop so queued updates are drained
	g.Go(func() error {
		err := s.feed.Run(gctx)
		s.logger.Info().Err(err).Bool("stopped", s.feed.Stopped()).Msg("feed finished")
		return nil
	})

	g.Go(func() error {
		err := s.loop.Run(gctx)
		if errors.Is(err, display.ErrFeedStopped) || errors.Is(err, display.ErrFeedDied) {
			s.renderer.Notify(EventTypeFeedStopped, map[string]string{"reason": err.Error()})
		}
		return err
	})

	if s.subscriber != nil {
		if err := s.subscriber.Start(gctx); err != nil {
			s.logger.Warn().Err(err).Msg("team info subscriber unavailable")
		}
	}

	if s.config.HTTPAddr != "" {
		server := &http.Server{
			Addr:        s.config.HTTPAddr,
			Handler:     h2c.NewHandler(s.handler.Routes(), &http2.Server{}),
			ReadTimeout: 10 * time.Second,
			IdleTimeout: 120 * time.Second,
		}
		g.Go(func() error {
			s.logger.Info().Str("addr", server.Addr).Msg("HTTP server starting")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	s.teams.Wait()
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		err = nil
	}

	s.logger.Info().Err(err).Msg("overlay service stopped")
	return err
}

// Handler returns the HTTP API, for embedding in another server
func (s *Service) Handler() http.Handler {
	return s.handler.Routes()
}

// Machine exposes the link state machine
func (s *Service) Machine() *link.Machine {
	return s.machine
}

// Renderer exposes the published views
func (s *Service) Renderer() *ViewRenderer {
	return s.renderer
}

// Loop exposes the render loop; its state is only safe to read after Run
// has returned
func (s *Service) Loop() *display.Loop {
	return s.loop
}
