package teaminfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// SubscriberConfig holds configuration for the NATS team info subscriber
type SubscriberConfig struct {
	URL           string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultSubscriberConfig returns default subscriber configuration
func DefaultSubscriberConfig() SubscriberConfig {
	return SubscriberConfig{
		URL:           nats.DefaultURL,
		Subject:       "uwh.teaminfo",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Subscriber receives pushed GameInfo messages and stores them in a Cache
type Subscriber struct {
	cache  *Cache
	config SubscriberConfig
	logger zerolog.Logger
	nc     *nats.Conn
	sub    *nats.Subscription
}

func NewSubscriber(cache *Cache, config SubscriberConfig, logger zerolog.Logger) *Subscriber {
	return &Subscriber{
		cache:  cache,
		config: config,
		logger: logger.With().Str("component", "teaminfo_subscriber").Logger(),
	}
}

// Start connects to NATS and subscribes. It returns once the subscription
// is active; messages are handled on the NATS client goroutine until ctx
// ends or Stop is called.
func (s *Subscriber) Start(ctx context.Context) error {
	opts := []nats.Option{
		nats.Name("uwh-display"),
		nats.MaxReconnects(s.config.MaxReconnects),
		nats.ReconnectWait(s.config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			s.logger.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			s.logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			s.logger.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(s.config.URL, opts...)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}

	sub, err := nc.Subscribe(s.config.Subject, func(msg *nats.Msg) {
		if err := s.handleMessage(msg.Data); err != nil {
			s.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping team info message")
		}
	})
	if err != nil {
		nc.Close()
		return fmt.Errorf("subscribe to %s: %w", s.config.Subject, err)
	}

	s.nc = nc
	s.sub = sub

	s.logger.Info().
		Str("url", s.config.URL).
		Str("subject", s.config.Subject).
		Msg("subscribed to team info")

	context.AfterFunc(ctx, s.Stop)
	return nil
}

func (s *Subscriber) handleMessage(data []byte) error {
	var info GameInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return fmt.Errorf("unmarshal game info: %w", err)
	}
	if info.GameID > math.MaxUint16 {
		return fmt.Errorf("game id %d out of range", info.GameID)
	}

	s.cache.Put(info)
	s.logger.Debug().
		Uint32("game_id", info.GameID).
		Str("black", info.Black.Name).
		Str("white", info.White.Name).
		Msg("received team info")
	return nil
}

// Stop unsubscribes and closes the NATS connection. Safe to call more than
// once.
func (s *Subscriber) Stop() {
	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) && !errors.Is(err, nats.ErrBadSubscription) {
			s.logger.Warn().Err(err).Msg("failed to unsubscribe")
		}
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
