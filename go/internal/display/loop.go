package display

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mcdev12/uwh-display/go/internal/game"
	"github.com/mcdev12/uwh-display/go/internal/handoff"
)

var (
	// ErrFeedStopped means the feed reported its terminal stopped state
	ErrFeedStopped = errors.New("feed stopped")

	// ErrFeedDied means the feed goroutine ended without a stop signal
	ErrFeedDied = errors.New("feed terminated unexpectedly")
)

// FeedStatus is the render loop's view of the network goroutine
type FeedStatus interface {
	// Done is closed when the feed goroutine has returned
	Done() <-chan struct{}
	// Stopped reports whether it returned through the link's stopped state
	Stopped() bool
	// Err is the reason the feed returned
	Err() error
}

// LoopConfig configures a render loop
type LoopConfig struct {
	Queue    *handoff.Queue[Update]
	Feed     FeedStatus
	Renderer Renderer
	Decoder  FlagDecoder
	Clock    clockwork.Clock
	FPS      int
	Logger   zerolog.Logger
}

// Loop is the frame-driven consumer. It owns the local state; nothing else
// mutates it.
type Loop struct {
	queue    *handoff.Queue[Update]
	feed     FeedStatus
	renderer Renderer
	decoder  FlagDecoder
	clock    clockwork.Clock
	interval time.Duration
	logger   zerolog.Logger

	state    State
	board    *PenaltyBoard
	selector *Selector
	mode     Mode
}

// NewLoop creates a loop starting from NewState
func NewLoop(cfg LoopConfig) *Loop {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 30
	}
	if cfg.Decoder == nil {
		cfg.Decoder = ImageDecoder{}
	}
	board := NewPenaltyBoard(cfg.Clock)
	return &Loop{
		queue:    cfg.Queue,
		feed:     cfg.Feed,
		renderer: cfg.Renderer,
		decoder:  cfg.Decoder,
		clock:    cfg.Clock,
		interval: time.Second / time.Duration(cfg.FPS),
		logger:   cfg.Logger,
		state:    NewState(),
		board:    board,
		selector: NewSelector(board),
	}
}

// State returns the current local state. Only call it from the loop's
// goroutine or after Run has returned.
func (l *Loop) State() State {
	return l.state
}

// Flags returns the current overlay indicators
func (l *Loop) Flags() []Flag {
	return l.board.Flags()
}

// Tick merges at most one pending update and renders one frame
func (l *Loop) Tick() Mode {
	if u, ok := l.queue.TryPop(); ok {
		l.apply(u)
	}
	return l.render()
}

func (l *Loop) apply(u Update) {
	l.state = Merge(l.state, u, l.decoder, l.logger)
	// indicators from a finished game must not carry into the next one
	if l.state.Snapshot.Period != game.BetweenGames {
		l.board.Sync(l.state.Snapshot)
	}
}

func (l *Loop) render() Mode {
	mode := l.selector.Select(&l.state)
	if mode != l.mode {
		l.logger.Debug().
			Str("from", l.mode.String()).
			Str("to", mode.String()).
			Str("period", l.state.Snapshot.Period.String()).
			Msg("display mode changed")
		l.mode = mode
	}
	Dispatch(l.renderer, mode, &l.state, l.board.Flags())
	return mode
}

// Run renders one frame per tick until ctx ends or the feed goes away. When
// the feed ends, anything it already queued is merged before returning
// ErrFeedStopped or ErrFeedDied.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.clock.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info().Dur("interval", l.interval).Msg("render loop started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			l.Tick()
			if err := l.checkFeed(); err != nil {
				return err
			}
		}
	}
}

func (l *Loop) checkFeed() error {
	if l.feed == nil {
		return nil
	}
	select {
	case <-l.feed.Done():
	default:
		return nil
	}

	drained := 0
	for {
		u, ok := l.queue.TryPop()
		if !ok {
			break
		}
		l.apply(u)
		drained++
	}
	if drained > 0 {
		l.render()
	}

	err := l.feed.Err()
	switch {
	case l.feed.Stopped() && err != nil:
		return fmt.Errorf("%w: %w", ErrFeedStopped, err)
	case l.feed.Stopped():
		return ErrFeedStopped
	case err != nil:
		return fmt.Errorf("%w: %v", ErrFeedDied, err)
	default:
		return ErrFeedDied
	}
}
