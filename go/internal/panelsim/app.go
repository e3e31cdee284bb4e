package panelsim

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mcdev12/uwh-display/go/internal/link"
)

// DefaultStatusInterval is how often the idle loop logs link health
const DefaultStatusInterval = 5 * time.Second

// App is the panel simulator. All fields are owned by the Run goroutine.
type App struct {
	machine  *link.Machine
	panel    PanelRenderer
	clock    clockwork.Clock
	interval time.Duration
	logger   zerolog.Logger

	frames     int
	shouldStop bool
	stopErr    error
}

func NewApp(m *link.Machine, panel PanelRenderer, clock clockwork.Clock, logger zerolog.Logger) *App {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{
		machine:  m,
		panel:    panel,
		clock:    clock,
		interval: DefaultStatusInterval,
		logger:   logger,
	}
}

// Update applies one link event
func (a *App) Update(ev link.Event) {
	a.logger.Trace().Int("kind", int(ev.Kind)).Msg("handling link event")

	switch ev.Kind {
	case link.EventRecord:
		a.panel.Draw(ev.Record.Snapshot, ev.Record.WhiteOnRight, ev.Record.Flash)
		a.frames++
	case link.EventStop:
		a.shouldStop = true
		a.stopErr = ev.Err
	case link.EventNone:
	}
}

// ShouldStop reports whether the link has stopped for good
func (a *App) ShouldStop() bool {
	return a.shouldStop
}

// Frames returns the number of snapshots drawn
func (a *App) Frames() int {
	return a.frames
}

// Run multiplexes link events with a status ticker until the link stops or
// ctx ends. It returns the link's terminal error, or ctx.Err.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := link.Subscribe(ctx, a.machine)
	ticker := a.clock.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info().Msg("panel simulator started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			a.Update(ev)
			if a.ShouldStop() {
				a.logger.Error().Err(a.stopErr).Int("frames", a.frames).Msg("refbox link stopped, quitting")
				return a.stopErr
			}
		case <-ticker.Chan():
			a.logger.Debug().
				Str("link", a.machine.State().String()).
				Int("failures", a.machine.Failures()).
				Int("frames", a.frames).
				Msg("panel status")
		}
	}
}
