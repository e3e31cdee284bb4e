package overlay

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mcdev12/uwh-display/go/internal/display"
	"github.com/mcdev12/uwh-display/go/internal/game"
)

// Broadcaster delivers encoded events to overlay clients
type Broadcaster interface {
	Broadcast(data []byte)
}

// ViewRenderer implements display.Renderer by publishing a JSON View to
// websocket clients whenever the rendered screen changes. It runs on the
// render loop goroutine; the accessors are safe to call from HTTP handlers.
type ViewRenderer struct {
	out    Broadcaster
	logger zerolog.Logger

	pending View
	// last encoded view, used for change detection
	lastData []byte

	mu        sync.RWMutex
	latest    View
	hasLatest bool
	flags     map[game.Color][]byte
}

func NewViewRenderer(out Broadcaster, logger zerolog.Logger) *ViewRenderer {
	return &ViewRenderer{
		out:    out,
		logger: logger.With().Str("component", "view_renderer").Logger(),
		flags:  make(map[game.Color][]byte),
	}
}

func (r *ViewRenderer) FinalScores(st *display.State) { r.screen(display.ModeFinalScores, st) }
func (r *ViewRenderer) NextGame(st *display.State)    { r.screen(display.ModeNextGame, st) }
func (r *ViewRenderer) Roster(st *display.State)      { r.screen(display.ModeRoster, st) }
func (r *ViewRenderer) PreGame(st *display.State)     { r.screen(display.ModePreGame, st) }
func (r *ViewRenderer) InGame(st *display.State)      { r.screen(display.ModeInGame, st) }

func (r *ViewRenderer) OvertimeSuddenDeath(st *display.State) {
	r.screen(display.ModeOvertimeSuddenDeath, st)
}

// Overlay completes an in-game screen with its indicators
func (r *ViewRenderer) Overlay(flags []display.Flag) {
	r.pending.Flags = buildFlags(flags)
	r.commit()
}

func (r *ViewRenderer) screen(mode display.Mode, st *display.State) {
	r.pending = BuildView(mode, st)
	r.storeFlags(st)
	if !mode.HasOverlay() {
		r.commit()
	}
}

func (r *ViewRenderer) storeFlags(st *display.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flags[game.Black] = st.Black.Flag
	r.flags[game.White] = st.White.Flag
}

func (r *ViewRenderer) commit() {
	data, err := json.Marshal(r.pending)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to marshal view")
		return
	}
	if bytes.Equal(data, r.lastData) {
		return
	}
	r.lastData = data

	r.mu.Lock()
	r.latest = r.pending
	r.hasLatest = true
	r.mu.Unlock()

	r.publish(EventTypeView, data)
}

// Notify sends a one-off event carrying payload to every client
func (r *ViewRenderer) Notify(eventType EventType, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to marshal event payload")
		return
	}
	r.publish(eventType, data)
}

func (r *ViewRenderer) publish(eventType EventType, data json.RawMessage) {
	if r.out == nil {
		return
	}
	event, err := json.Marshal(OverlayEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to marshal overlay event")
		return
	}
	r.out.Broadcast(event)
}

// Latest returns the last published view
func (r *ViewRenderer) Latest() (View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest, r.hasLatest
}

// FlagImage returns the raw flag bytes last seen for a side
func (r *ViewRenderer) FlagImage(c game.Color) []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.flags[c]
}
