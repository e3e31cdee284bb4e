// Package link owns the display side of the refbox connection. The state
// machine is written once (Machine) and driven either from a dedicated
// goroutine (Worker) or as an on-demand event stream (Subscribe).
package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/uwh-display/go/internal/wire"
)

var (
	// ErrPeerClosed is the terminal error after the refbox closes the stream
	ErrPeerClosed = errors.New("refbox closed the connection")

	// ErrRetriesExhausted is the terminal error after MaxFailures failed connects
	ErrRetriesExhausted = errors.New("too many failed connection attempts")
)

// State is the connection state
type State int32

const (
	Disconnected State = iota
	Connected
	Stopped
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// EventKind classifies the outcome of one step
type EventKind int

const (
	// EventNone means the step produced nothing new
	EventNone EventKind = iota
	// EventRecord carries a decoded frame
	EventRecord
	// EventStop is emitted once, when the machine enters Stopped
	EventStop
)

// Event is the result of one Step
type Event struct {
	Kind   EventKind
	Record wire.Record
	Err    error
}

// Config holds the connection parameters
type Config struct {
	Addr        string
	Backoff     time.Duration
	MaxFailures int
}

// DefaultConfig returns the standard backoff settings for addr
func DefaultConfig(addr string) Config {
	return Config{
		Addr:        addr,
		Backoff:     500 * time.Millisecond,
		MaxFailures: 20,
	}
}

// Dialer opens the TCP stream. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Machine is the connection state machine. Step must only be called from one
// goroutine at a time; State, Failures and Close are safe from any goroutine.
type Machine struct {
	cfg    Config
	dialer Dialer
	clock  clockwork.Clock
	obs    Observer

	mu     sync.Mutex
	conn   net.Conn
	closed bool

	state    atomic.Int32
	failures atomic.Int32

	// exactly one frame, so back-to-back frames stay aligned
	buf []byte
}

// NewMachine creates a disconnected machine. Nil collaborators fall back to a
// net.Dialer, the real clock and a NopObserver.
func NewMachine(cfg Config, dialer Dialer, clock clockwork.Clock, obs Observer) *Machine {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if obs == nil {
		obs = NopObserver{}
	}
	return &Machine{
		cfg:    cfg,
		dialer: dialer,
		clock:  clock,
		obs:    obs,
		buf:    make([]byte, wire.FrameLen),
	}
}

// State returns the current connection state
func (m *Machine) State() State {
	return State(m.state.Load())
}

// Failures returns the number of consecutive failed connection attempts
func (m *Machine) Failures() int {
	return int(m.failures.Load())
}

// Close closes the live socket, if any. A blocked Step then observes a read
// error and the machine stops. A dial still in flight is discarded when it
// completes.
func (m *Machine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.conn == nil {
		return nil
	}
	return m.conn.Close()
}

// Step performs one connect-or-read cycle. Once the machine has stopped, Step
// does no I/O and blocks until ctx is done.
func (m *Machine) Step(ctx context.Context) Event {
	if m.State() == Stopped {
		<-ctx.Done()
		return Event{Kind: EventNone, Err: ctx.Err()}
	}

	conn := m.currentConn()
	if conn == nil {
		c, err := m.dialer.DialContext(ctx, "tcp", m.cfg.Addr)
		if err != nil {
			if ctx.Err() != nil {
				return Event{Kind: EventNone, Err: ctx.Err()}
			}
			return m.connectFailed(ctx, err)
		}
		if tc, ok := c.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(true)
		}
		m.mu.Lock()
		if m.closed || ctx.Err() != nil {
			m.mu.Unlock()
			_ = c.Close()
			return Event{Kind: EventNone, Err: ctx.Err()}
		}
		m.conn = c
		m.mu.Unlock()
		m.failures.Store(0)
		m.state.Store(int32(Connected))
		m.obs.Connected(m.cfg.Addr)
		conn = c
	}

	n, err := conn.Read(m.buf)
	switch {
	case n == 0 && (err == nil || errors.Is(err, io.EOF)):
		return m.stop(ErrPeerClosed)
	case err != nil && !errors.Is(err, io.EOF):
		return m.stop(fmt.Errorf("read from refbox: %w", err))
	case n != wire.FrameLen:
		m.obs.FrameSkipped(fmt.Errorf("%w: read %d bytes", wire.ErrFrameLength, n))
		return Event{Kind: EventNone}
	}

	rec, err := wire.Decode(m.buf[:n])
	if err != nil {
		m.obs.FrameSkipped(err)
		return Event{Kind: EventNone, Err: err}
	}
	return Event{Kind: EventRecord, Record: rec}
}

func (m *Machine) currentConn() net.Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn
}

func (m *Machine) connectFailed(ctx context.Context, err error) Event {
	attempt := int(m.failures.Add(1))
	m.obs.ConnectFailed(attempt, err)

	if attempt >= m.cfg.MaxFailures {
		return m.stop(fmt.Errorf("%w (%d): %w", ErrRetriesExhausted, attempt, err))
	}

	select {
	case <-m.clock.After(m.cfg.Backoff):
	case <-ctx.Done():
	}
	return Event{Kind: EventNone, Err: err}
}

func (m *Machine) stop(err error) Event {
	m.state.Store(int32(Stopped))

	m.mu.Lock()
	if m.conn != nil {
		_ = m.conn.Close()
	}
	m.mu.Unlock()

	m.obs.Stopped(err)
	return Event{Kind: EventStop, Err: err}
}
