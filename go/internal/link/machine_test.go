package link

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/uwh-display/go/internal/game"
	"github.com/mcdev12/uwh-display/go/internal/wire"
)

type fakeDialer struct {
	mu       sync.Mutex
	attempts int
	failFor  int
	conns    []net.Conn
	err      error
}

func (d *fakeDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempts++
	if d.attempts <= d.failFor || len(d.conns) == 0 {
		if d.err != nil {
			return nil, d.err
		}
		return nil, errors.New("connection refused")
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	return c, nil
}

func (d *fakeDialer) Attempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts
}

type recordingObserver struct {
	mu       sync.Mutex
	connects int
	failures []int
	skipped  []error
	stops    []error
}

func (o *recordingObserver) Connected(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.connects++
}

func (o *recordingObserver) ConnectFailed(attempt int, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, attempt)
}

func (o *recordingObserver) FrameSkipped(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.skipped = append(o.skipped, err)
}

func (o *recordingObserver) Stopped(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stops = append(o.stops, err)
}

func testConfig() Config {
	cfg := DefaultConfig("refbox.test:8000")
	cfg.Backoff = time.Millisecond
	return cfg
}

func encode(t *testing.T, s game.Snapshot) []byte {
	t.Helper()
	f, err := wire.Encode(wire.Record{Snapshot: s})
	require.NoError(t, err)
	return f[:]
}

func cancelled() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func TestMachine_StopsAfterFailureCeiling(t *testing.T) {
	dialer := &fakeDialer{}
	obs := &recordingObserver{}
	m := NewMachine(testConfig(), dialer, nil, obs)
	ctx := context.Background()

	var stop Event
	for i := 0; i < 100; i++ {
		ev := m.Step(ctx)
		if ev.Kind == EventStop {
			stop = ev
			break
		}
		require.Equal(t, EventNone, ev.Kind)
		require.Equal(t, Disconnected, m.State())
	}

	require.Equal(t, EventStop, stop.Kind)
	assert.ErrorIs(t, stop.Err, ErrRetriesExhausted)
	assert.Equal(t, Stopped, m.State())
	assert.Equal(t, 20, dialer.Attempts())
	assert.Equal(t, 20, m.Failures())
	assert.Len(t, obs.stops, 1)

	// stopped is absorbing: no further connect attempts
	for i := 0; i < 3; i++ {
		ev := m.Step(cancelled())
		assert.Equal(t, EventNone, ev.Kind)
	}
	assert.Equal(t, 20, dialer.Attempts())
	assert.Len(t, obs.stops, 1)
}

func TestMachine_WaitsBackoffBeforeNextAttempt(t *testing.T) {
	clock := clockwork.NewFakeClock()
	dialer := &fakeDialer{}
	m := NewMachine(DefaultConfig("refbox.test:8000"), dialer, clock, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan Event, 1)
	go func() { done <- m.Step(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, 1, dialer.Attempts())
	select {
	case <-done:
		t.Fatal("step returned before the backoff elapsed")
	default:
	}

	clock.Advance(500 * time.Millisecond)
	ev := <-done
	assert.Equal(t, EventNone, ev.Kind)
	assert.Equal(t, 1, m.Failures())
}

func TestMachine_ConnectResetsFailureCounter(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	dialer := &fakeDialer{failFor: 2, conns: []net.Conn{client}}
	m := NewMachine(testConfig(), dialer, nil, nil)

	frame := encode(t, game.Snapshot{Period: game.HalfTime})
	go func() { _, _ = server.Write(frame) }()

	for i := 0; i < 2; i++ {
		require.Equal(t, EventNone, m.Step(context.Background()).Kind)
	}
	assert.Equal(t, 2, m.Failures())

	ev := m.Step(context.Background())
	require.Equal(t, EventRecord, ev.Kind)
	assert.Equal(t, game.HalfTime, ev.Record.Snapshot.Period)
	assert.Equal(t, 0, m.Failures())
	assert.Equal(t, Connected, m.State())
}

func TestMachine_SkipsBadFramesAndStopsOnClose(t *testing.T) {
	client, server := net.Pipe()
	dialer := &fakeDialer{conns: []net.Conn{client}}
	obs := &recordingObserver{}
	m := NewMachine(testConfig(), dialer, nil, obs)

	garbage := make([]byte, wire.FrameLen)
	garbage[0] = wire.Version + 1

	first := encode(t, game.Snapshot{Period: game.FirstHalf, BlackScore: 3, WhiteScore: 2})
	second := encode(t, game.Snapshot{Period: game.SecondHalf})

	go func() {
		_, _ = server.Write(first)
		_, _ = server.Write([]byte("short"))
		_, _ = server.Write(garbage)
		_, _ = server.Write(second)
		_ = server.Close()
	}()

	ctx := context.Background()
	ev := m.Step(ctx)
	require.Equal(t, EventRecord, ev.Kind)
	assert.Equal(t, uint8(3), ev.Record.Snapshot.BlackScore)

	ev = m.Step(ctx)
	assert.Equal(t, EventNone, ev.Kind)
	assert.Equal(t, Connected, m.State())

	ev = m.Step(ctx)
	assert.Equal(t, EventNone, ev.Kind)
	var decErr *wire.DecodeError
	assert.True(t, errors.As(ev.Err, &decErr))
	assert.Equal(t, Connected, m.State())

	ev = m.Step(ctx)
	require.Equal(t, EventRecord, ev.Kind)
	assert.Equal(t, game.SecondHalf, ev.Record.Snapshot.Period)

	ev = m.Step(ctx)
	require.Equal(t, EventStop, ev.Kind)
	assert.ErrorIs(t, ev.Err, ErrPeerClosed)
	assert.Equal(t, Stopped, m.State())

	require.Len(t, obs.skipped, 2)
	assert.ErrorIs(t, obs.skipped[0], wire.ErrFrameLength)
	assert.Equal(t, 1, obs.connects)

	assert.Equal(t, EventNone, m.Step(cancelled()).Kind)
	assert.Equal(t, 1, dialer.Attempts())
}

type brokenConn struct {
	net.Conn
}

func (brokenConn) Read([]byte) (int, error) { return 0, errors.New("connection reset by peer") }
func (brokenConn) Close() error             { return nil }

func TestMachine_HardReadErrorIsTerminal(t *testing.T) {
	dialer := &fakeDialer{conns: []net.Conn{brokenConn{}}}
	m := NewMachine(testConfig(), dialer, nil, nil)

	ev := m.Step(context.Background())
	require.Equal(t, EventStop, ev.Kind)
	assert.NotErrorIs(t, ev.Err, ErrPeerClosed)
	assert.Contains(t, ev.Err.Error(), "connection reset")
	assert.Equal(t, Stopped, m.State())
	assert.Equal(t, 1, dialer.Attempts())
}
