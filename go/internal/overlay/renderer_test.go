package overlay

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/uwh-display/go/internal/display"
	"github.com/mcdev12/uwh-display/go/internal/game"
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages [][]byte
}

func (b *recordingBroadcaster) Broadcast(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, data)
}

func (b *recordingBroadcaster) events(t *testing.T) []OverlayEvent {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]OverlayEvent, 0, len(b.messages))
	for _, m := range b.messages {
		var ev OverlayEvent
		require.NoError(t, json.Unmarshal(m, &ev))
		out = append(out, ev)
	}
	return out
}

func decodeView(t *testing.T, ev OverlayEvent) View {
	t.Helper()
	require.Equal(t, EventTypeView, ev.Type)
	var v View
	require.NoError(t, json.Unmarshal(ev.Data, &v))
	return v
}

func TestViewRenderer_PublishesOnlyChanges(t *testing.T) {
	out := &recordingBroadcaster{}
	r := NewViewRenderer(out, zerolog.Nop())
	st := display.NewState()

	display.Dispatch(r, display.ModeNextGame, &st, nil)
	display.Dispatch(r, display.ModeNextGame, &st, nil)
	require.Len(t, out.events(t), 1)

	st.Snapshot.SecsInPeriod = 599
	display.Dispatch(r, display.ModeNextGame, &st, nil)

	events := out.events(t)
	require.Len(t, events, 2)
	v := decodeView(t, events[1])
	assert.Equal(t, "next_game", v.Mode)
	assert.Equal(t, "9:59", v.Clock)
	assert.Equal(t, "BLACK", v.Black.Name)
	assert.Equal(t, "WHITE", v.White.Name)
	assert.NotEmpty(t, events[1].ID)
}

func TestViewRenderer_InGameCarriesOverlay(t *testing.T) {
	out := &recordingBroadcaster{}
	r := NewViewRenderer(out, zerolog.Nop())
	st := display.NewState()
	st.Snapshot = game.Snapshot{
		Period:         game.SecondHalf,
		SecsInPeriod:   125,
		BlackScore:     2,
		WhiteScore:     1,
		BlackPenalties: []game.Penalty{{PlayerNumber: 7, Time: game.PenaltyTime{Secs: 45}}},
		Timeout:        game.Timeout{Kind: game.TimeoutRef, Secs: 30},
	}
	flags := []display.Flag{{Color: game.Black, PlayerNumber: 7, Kind: display.FlagPenalty}}

	display.Dispatch(r, display.ModeInGame, &st, flags)

	events := out.events(t)
	require.Len(t, events, 1)
	v := decodeView(t, events[0])
	assert.Equal(t, "in_game", v.Mode)
	assert.Equal(t, "2:05", v.Clock)
	assert.Equal(t, uint8(2), v.Black.Score)
	require.Len(t, v.Black.Penalties, 1)
	assert.Equal(t, PenaltyView{PlayerNumber: 7, Time: "0:45", Secs: 45}, v.Black.Penalties[0])
	require.NotNil(t, v.Timeout)
	assert.Equal(t, uint16(30), v.Timeout.Secs)
	assert.Equal(t, []FlagView{{Color: "black", PlayerNumber: 7, Kind: "penalty"}}, v.Flags)

	latest, ok := r.Latest()
	require.True(t, ok)
	assert.Equal(t, v, latest)
}

func TestViewRenderer_KeepsFlagBytes(t *testing.T) {
	r := NewViewRenderer(nil, zerolog.Nop())
	_, ok := r.Latest()
	assert.False(t, ok)

	st := display.NewState()
	st.White.Flag = []byte("gif-bytes")
	r.NextGame(&st)

	assert.Equal(t, []byte("gif-bytes"), r.FlagImage(game.White))
	assert.Nil(t, r.FlagImage(game.Black))
}

func TestViewRenderer_Notify(t *testing.T) {
	out := &recordingBroadcaster{}
	r := NewViewRenderer(out, zerolog.Nop())

	r.Notify(EventTypeFeedStopped, map[string]string{"reason": "refbox closed the connection"})

	events := out.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeFeedStopped, events[0].Type)
	assert.JSONEq(t, `{"reason":"refbox closed the connection"}`, string(events[0].Data))
}
