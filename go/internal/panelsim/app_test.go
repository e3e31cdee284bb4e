package panelsim

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/uwh-display/go/internal/game"
	"github.com/mcdev12/uwh-display/go/internal/link"
	"github.com/mcdev12/uwh-display/go/internal/wire"
)

type drawCall struct {
	snapshot     game.Snapshot
	whiteOnRight bool
	flash        bool
}

type recordingPanel struct {
	calls []drawCall
}

func (p *recordingPanel) Draw(s game.Snapshot, whiteOnRight, flash bool) {
	p.calls = append(p.calls, drawCall{snapshot: s, whiteOnRight: whiteOnRight, flash: flash})
}

type pipeDialer struct {
	conn net.Conn
}

func (d *pipeDialer) DialContext(context.Context, string, string) (net.Conn, error) {
	if d.conn == nil {
		return nil, errors.New("connection refused")
	}
	c := d.conn
	d.conn = nil
	return c, nil
}

func TestApp_Update(t *testing.T) {
	panel := &recordingPanel{}
	app := NewApp(nil, panel, nil, zerolog.Nop())

	app.Update(link.Event{Kind: link.EventNone})
	assert.Empty(t, panel.calls)
	assert.False(t, app.ShouldStop())

	rec := wire.Record{Snapshot: game.Snapshot{Period: game.HalfTime}, WhiteOnRight: true, Flash: true}
	app.Update(link.Event{Kind: link.EventRecord, Record: rec})
	require.Len(t, panel.calls, 1)
	assert.Equal(t, drawCall{snapshot: rec.Snapshot, whiteOnRight: true, flash: true}, panel.calls[0])
	assert.Equal(t, 1, app.Frames())

	app.Update(link.Event{Kind: link.EventStop, Err: link.ErrPeerClosed})
	assert.True(t, app.ShouldStop())
}

func TestApp_RunDrawsUntilRefboxCloses(t *testing.T) {
	client, server := net.Pipe()
	frame, err := wire.Encode(wire.Record{Snapshot: game.Snapshot{Period: game.SecondHalf, BlackScore: 1}})
	require.NoError(t, err)

	go func() {
		_, _ = server.Write(frame[:])
		_ = server.Close()
	}()

	cfg := link.DefaultConfig("refbox:8000")
	panel := &recordingPanel{}
	app := NewApp(link.NewMachine(cfg, &pipeDialer{conn: client}, nil, nil), panel, nil, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = app.Run(ctx)
	assert.ErrorIs(t, err, link.ErrPeerClosed)
	assert.True(t, app.ShouldStop())
	require.Len(t, panel.calls, 1)
	assert.Equal(t, uint8(1), panel.calls[0].snapshot.BlackScore)
}

func TestApp_RunGivesUpAfterRetries(t *testing.T) {
	cfg := link.Config{Addr: "refbox:8000", Backoff: time.Millisecond, MaxFailures: 3}
	app := NewApp(link.NewMachine(cfg, &pipeDialer{}, nil, nil), &recordingPanel{}, nil, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := app.Run(ctx)
	assert.ErrorIs(t, err, link.ErrRetriesExhausted)
	assert.Zero(t, app.Frames())
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	m := link.NewMachine(link.DefaultConfig("refbox:8000"), &pipeDialer{conn: client}, nil, nil)
	app := NewApp(m, &recordingPanel{}, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool { return m.State() == link.Connected }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, app.ShouldStop())
	case <-time.After(2 * time.Second):
		t.Fatal("app did not return after cancel")
	}
}
