package overlay

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mcdev12/uwh-display/go/internal/display"
	"github.com/mcdev12/uwh-display/go/internal/game"
	"github.com/mcdev12/uwh-display/go/internal/handoff"
	"github.com/mcdev12/uwh-display/go/internal/link"
	"github.com/mcdev12/uwh-display/go/internal/teaminfo"
	"github.com/mcdev12/uwh-display/go/internal/wire"
)

// TeamLookup is the part of teaminfo.Cache the feed needs
type TeamLookup interface {
	Get(gameNumber uint16) (teaminfo.GameInfo, bool)
	Request(ctx context.Context, gameNumber uint16)
}

// Feed is the network goroutine: it drives the link and is the only
// producer on the hand-off queue
type Feed struct {
	worker *link.Worker
	queue  *handoff.Queue[display.Update]
	teams  TeamLookup
	logger zerolog.Logger

	done    chan struct{}
	mu      sync.Mutex
	err     error
	stopped bool

	// game whose team info has already been sent, and what was sent
	sentGame uint16
	sentInfo teaminfo.GameInfo
	sent     bool
}

func NewFeed(m *link.Machine, q *handoff.Queue[display.Update], teams TeamLookup, logger zerolog.Logger) *Feed {
	return &Feed{
		worker: link.NewWorker(m),
		queue:  q,
		teams:  teams,
		logger: logger.With().Str("component", "feed").Logger(),
		done:   make(chan struct{}),
	}
}

// Run blocks until the link stops or ctx ends. It may be called once.
func (f *Feed) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("feed panic: %v", r)
		}
		f.mu.Lock()
		f.err = err
		f.stopped = ctx.Err() == nil && f.worker.Machine().State() == link.Stopped
		f.mu.Unlock()
		close(f.done)
	}()

	return f.worker.Run(ctx, f.push)
}

func (f *Feed) push(ctx context.Context, rec wire.Record) error {
	u := display.Update{Snapshot: rec.Snapshot}
	f.enrich(ctx, &u)
	f.logger.Trace().Stringer("snapshot", rec.Snapshot).Msg("queueing update")
	return f.queue.Push(ctx, u)
}

// enrich attaches team info for the game the screens are about the first
// time it is available, and again whenever the cached info changes
func (f *Feed) enrich(ctx context.Context, u *display.Update) {
	if f.teams == nil {
		return
	}
	number := lookupGame(u.Snapshot)
	sameGame := f.sent && number == f.sentGame

	info, ok := f.teams.Get(number)
	if !ok {
		if !sameGame {
			f.teams.Request(ctx, number)
		}
		return
	}
	if sameGame && reflect.DeepEqual(info, f.sentInfo) {
		return
	}
	info.Apply(u)
	f.sentGame, f.sentInfo, f.sent = number, info, true
	f.logger.Info().
		Uint16("game_number", number).
		Str("black", info.Black.Name).
		Str("white", info.White.Name).
		Bool("refresh", sameGame).
		Msg("team info attached")
}

// lookupGame returns the game whose teams are on screen: between games
// that is the upcoming one unless the finished game's scores are showing
func lookupGame(s game.Snapshot) uint16 {
	if s.Period == game.BetweenGames && !s.IsOldGame {
		return s.NextGameNumber
	}
	return s.GameNumber
}

// Done is closed when Run has returned
func (f *Feed) Done() <-chan struct{} { return f.done }

// Stopped reports whether Run ended through the link's stopped state
func (f *Feed) Stopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// Err is the error Run returned
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}
