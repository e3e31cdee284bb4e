package teaminfo

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// DefaultRetryAfter is how long a failed lookup is remembered before the
// same game number may be fetched again
const DefaultRetryAfter = 30 * time.Second

// Fetcher resolves the team info for a game number
type Fetcher interface {
	FetchGame(ctx context.Context, gameNumber uint16) (GameInfo, error)
}

// Cache holds GameInfo keyed by game number. Lookups never block; misses
// are filled in the background.
type Cache struct {
	mu       sync.Mutex
	entries  map[uint16]GameInfo
	pending  map[uint16]struct{}
	failedAt map[uint16]time.Time

	fetcher    Fetcher
	clock      clockwork.Clock
	retryAfter time.Duration
	logger     zerolog.Logger
	wg         sync.WaitGroup
}

// NewCache creates a cache. fetcher may be nil, in which case only Put
// fills it.
func NewCache(fetcher Fetcher, clock clockwork.Clock, logger zerolog.Logger) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{
		entries:    make(map[uint16]GameInfo),
		pending:    make(map[uint16]struct{}),
		failedAt:   make(map[uint16]time.Time),
		fetcher:    fetcher,
		clock:      clock,
		retryAfter: DefaultRetryAfter,
		logger:     logger,
	}
}

// SetRetryAfter changes how long failed lookups are suppressed
func (c *Cache) SetRetryAfter(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retryAfter = d
}

// Get returns cached info for a game number
func (c *Cache) Get(gameNumber uint16) (GameInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	info, ok := c.entries[gameNumber]
	return info, ok
}

// Put stores info under its GameID, replacing anything already there
func (c *Cache) Put(info GameInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := uint16(info.GameID)
	c.entries[key] = info
	delete(c.failedAt, key)
}

// Request starts a background fetch for gameNumber unless it is already
// cached, in flight, or failed less than retryAfter ago
func (c *Cache) Request(ctx context.Context, gameNumber uint16) {
	if c.fetcher == nil {
		return
	}

	c.mu.Lock()
	if _, ok := c.entries[gameNumber]; ok {
		c.mu.Unlock()
		return
	}
	if _, ok := c.pending[gameNumber]; ok {
		c.mu.Unlock()
		return
	}
	if at, ok := c.failedAt[gameNumber]; ok && c.clock.Since(at) < c.retryAfter {
		c.mu.Unlock()
		return
	}
	c.pending[gameNumber] = struct{}{}
	c.wg.Add(1)
	c.mu.Unlock()

	go c.fetch(ctx, gameNumber)
}

func (c *Cache) fetch(ctx context.Context, gameNumber uint16) {
	defer c.wg.Done()

	info, err := c.fetcher.FetchGame(ctx, gameNumber)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, gameNumber)

	if err != nil {
		c.failedAt[gameNumber] = c.clock.Now()
		c.logger.Warn().Err(err).Uint16("game_number", gameNumber).Msg("team info lookup failed")
		return
	}

	// a pushed entry wins over a slower fetch
	if _, ok := c.entries[gameNumber]; !ok {
		c.entries[gameNumber] = info
	}
	c.logger.Debug().
		Uint16("game_number", gameNumber).
		Str("black", info.Black.Name).
		Str("white", info.White.Name).
		Msg("team info cached")
}

// Wait blocks until every in-flight fetch has finished
func (c *Cache) Wait() {
	c.wg.Wait()
}
