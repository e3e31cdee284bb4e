// Package display holds a consumer's long-lived view of the game: it merges
// sparse updates into local state and decides, from that state alone, which
// screen to render each tick.
package display

import (
	"image"

	"github.com/mcdev12/uwh-display/go/internal/game"
)

// Player is one roster entry
type Player struct {
	Name   string `json:"name" yaml:"name"`
	Number uint8  `json:"number" yaml:"number"`
}

// TeamInfo describes one side. Flag holds raw encoded image bytes.
type TeamInfo struct {
	Name    string   `json:"name" yaml:"name"`
	Players []Player `json:"players,omitempty" yaml:"players"`
	Flag    []byte   `json:"flag,omitempty" yaml:"-"`
}

// Update is a sparse update. Nil fields carry no information and must leave
// the receiver's value untouched; Snapshot is always complete.
type Update struct {
	Black     *TeamInfo
	White     *TeamInfo
	GameID    *uint32
	Pool      *string
	StartTime *string
	Snapshot  game.Snapshot
}

// State is the display's local state. It is owned by a single goroutine.
type State struct {
	Snapshot  game.Snapshot
	Black     TeamInfo
	White     TeamInfo
	BlackFlag image.Image
	WhiteFlag image.Image
	GameID    uint32
	Pool      string
	StartTime string

	// HalfPlayDuration remembers the announced period length for the
	// between-games screens
	HalfPlayDuration *uint32
}

// NewState returns the placeholder state shown before any data arrives
func NewState() State {
	return State{
		Snapshot: game.Snapshot{
			Period:       game.BetweenGames,
			SecsInPeriod: 600,
		},
		Black: TeamInfo{Name: "BLACK"},
		White: TeamInfo{Name: "WHITE"},
	}
}

// Team returns the team info for a side
func (s *State) Team(c game.Color) TeamInfo {
	if c == game.White {
		return s.White
	}
	return s.Black
}

// Flag returns the decoded flag image for a side, or nil
func (s *State) Flag(c game.Color) image.Image {
	if c == game.White {
		return s.WhiteFlag
	}
	return s.BlackFlag
}
