package link

import (
	"time"

	"github.com/rs/zerolog"
)

// Observer receives the state machine's reportable events. It replaces a global
// logger so the machine can be exercised without a log sink.
type Observer interface {
	Connected(addr string)
	ConnectFailed(attempt int, err error)
	FrameSkipped(err error)
	Stopped(err error)
}

// NopObserver ignores every event
type NopObserver struct{}

func (NopObserver) Connected(string)         {}
func (NopObserver) ConnectFailed(int, error) {}
func (NopObserver) FrameSkipped(error)       {}
func (NopObserver) Stopped(error)            {}

// LogObserver reports events through a zerolog logger
type LogObserver struct {
	Logger  zerolog.Logger
	Backoff time.Duration
}

func (o LogObserver) Connected(addr string) {
	o.Logger.Info().Str("addr", addr).Msg("connected to refbox")
}

func (o LogObserver) ConnectFailed(attempt int, err error) {
	o.Logger.Warn().
		Err(err).
		Int("attempt", attempt).
		Dur("backoff", o.Backoff).
		Msg("failed to connect to refbox")
}

func (o LogObserver) FrameSkipped(err error) {
	o.Logger.Warn().Err(err).Msg("skipping frame")
}

func (o LogObserver) Stopped(err error) {
	o.Logger.Error().Err(err).Msg("refbox link stopped")
}
