// Package feed is the authoritative side of the link: it serves encoded
// snapshots to any display that connects.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mcdev12/uwh-display/go/internal/wire"
)

// DefaultWriteTimeout bounds how long one slow display can hold up Publish
const DefaultWriteTimeout = 2 * time.Second

// Broadcaster accepts display connections and fans frames out to them
type Broadcaster struct {
	addr         string
	writeTimeout time.Duration
	logger       zerolog.Logger

	ln       net.Listener
	mu       sync.Mutex
	clients  map[string]net.Conn
	joined   chan struct{}
	joinOnce sync.Once
}

func NewBroadcaster(addr string, logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		addr:         addr,
		writeTimeout: DefaultWriteTimeout,
		logger:       logger.With().Str("component", "broadcaster").Logger(),
		clients:      make(map[string]net.Conn),
		joined:       make(chan struct{}),
	}
}

// Listen binds the TCP listener
func (b *Broadcaster) Listen() error {
	ln, err := net.Listen("tcp", b.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", b.addr, err)
	}
	b.ln = ln
	b.logger.Info().Str("addr", ln.Addr().String()).Msg("listening for displays")
	return nil
}

// Addr returns the bound address, or the configured one before Listen
func (b *Broadcaster) Addr() string {
	if b.ln != nil {
		return b.ln.Addr().String()
	}
	return b.addr
}

// Serve accepts connections until ctx ends, then closes every client
func (b *Broadcaster) Serve(ctx context.Context) error {
	if b.ln == nil {
		if err := b.Listen(); err != nil {
			return err
		}
	}
	stop := context.AfterFunc(ctx, func() { _ = b.ln.Close() })
	defer stop()
	defer b.closeAll()

	for {
		c, err := b.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			b.logger.Warn().Err(err).Msg("accept error")
			continue
		}
		b.addClient(c)
	}
}

func (b *Broadcaster) addClient(c net.Conn) {
	if tc, ok := c.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	addr := c.RemoteAddr().String()

	b.mu.Lock()
	b.clients[addr] = c
	total := len(b.clients)
	b.mu.Unlock()

	b.joinOnce.Do(func() { close(b.joined) })
	b.logger.Info().Str("client", addr).Int("clients", total).Msg("display connected")
}

// WaitForClient blocks until at least one display has connected
func (b *Broadcaster) WaitForClient(ctx context.Context) error {
	select {
	case <-b.joined:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish writes one frame to every client. Clients whose write fails are
// closed and forgotten.
func (b *Broadcaster) Publish(rec wire.Record) error {
	frame, err := wire.Encode(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for addr, c := range b.clients {
		_ = c.SetWriteDeadline(time.Now().Add(b.writeTimeout))
		if _, err := c.Write(frame[:]); err != nil {
			b.logger.Warn().Err(err).Str("client", addr).Msg("dropping display")
			_ = c.Close()
			delete(b.clients, addr)
		}
	}
	return nil
}

// Clients returns the number of connected displays
func (b *Broadcaster) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *Broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for addr, c := range b.clients {
		_ = c.Close()
		delete(b.clients, addr)
	}
}
