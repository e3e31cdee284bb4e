package display

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/uwh-display/go/internal/game"
)

// FlagKind distinguishes the overlay indicators
type FlagKind int

const (
	FlagPenalty FlagKind = iota
	FlagTotalDismissal
	FlagGoal
)

func (k FlagKind) String() string {
	switch k {
	case FlagPenalty:
		return "penalty"
	case FlagTotalDismissal:
		return "total_dismissal"
	case FlagGoal:
		return "goal"
	default:
		return "unknown"
	}
}

// Flag is one indicator on the in-game overlay
type Flag struct {
	Color        game.Color
	PlayerNumber uint8
	Kind         FlagKind
	Since        time.Time
}

type flagKey struct {
	color  game.Color
	player uint8
	kind   FlagKind
}

func (f Flag) key() flagKey {
	return flagKey{color: f.Color, player: f.PlayerNumber, kind: f.Kind}
}

// PenaltyBoard tracks which penalty and goal indicators are on screen and
// since when, so a front-end can animate them in and out.
type PenaltyBoard struct {
	clock clockwork.Clock
	flags []Flag
}

// NewPenaltyBoard creates an empty board
func NewPenaltyBoard(clock clockwork.Clock) *PenaltyBoard {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &PenaltyBoard{clock: clock}
}

// Sync brings the board in line with s. Indicators that are still present
// keep their original timestamp; new ones are appended in snapshot order.
func (b *PenaltyBoard) Sync(s game.Snapshot) {
	var current []flagKey
	for _, c := range []game.Color{game.Black, game.White} {
		for _, p := range s.Penalties(c) {
			kind := FlagPenalty
			if p.Time.TotalDismissal {
				kind = FlagTotalDismissal
			}
			current = append(current, flagKey{color: c, player: p.PlayerNumber, kind: kind})
		}
	}
	if g := s.RecentGoal; g != nil {
		current = append(current, flagKey{color: g.Color, player: g.PlayerNumber, kind: FlagGoal})
	}

	wanted := make(map[flagKey]bool, len(current))
	for _, k := range current {
		wanted[k] = true
	}

	kept := b.flags[:0]
	have := make(map[flagKey]bool, len(b.flags))
	for _, f := range b.flags {
		if wanted[f.key()] {
			kept = append(kept, f)
			have[f.key()] = true
		}
	}

	now := b.clock.Now()
	for _, k := range current {
		if have[k] {
			continue
		}
		kept = append(kept, Flag{Color: k.color, PlayerNumber: k.player, Kind: k.kind, Since: now})
		have[k] = true
	}
	b.flags = kept
}

// Reset drops every indicator
func (b *PenaltyBoard) Reset() {
	b.flags = nil
}

// Flags returns a copy of the current indicators
func (b *PenaltyBoard) Flags() []Flag {
	out := make([]Flag, len(b.flags))
	copy(out, b.flags)
	return out
}
