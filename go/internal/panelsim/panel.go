// Package panelsim simulates the LED scoreboard. Unlike the overlay it
// drives the refbox link cooperatively from its own event loop.
package panelsim

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mcdev12/uwh-display/go/internal/game"
)

// PanelRenderer draws one snapshot onto the panel
type PanelRenderer interface {
	Draw(s game.Snapshot, whiteOnRight, flash bool)
}

// FormatPanel renders the panel contents as one line of text. Sides follow
// the pool orientation.
func FormatPanel(s game.Snapshot, whiteOnRight, flash bool) string {
	left := side{color: game.Black, score: s.BlackScore, penalties: s.BlackPenalties}
	right := side{color: game.White, score: s.WhiteScore, penalties: s.WhitePenalties}
	if !whiteOnRight {
		left, right = right, left
	}

	var b strings.Builder
	if flash {
		b.WriteString("** ")
	}
	fmt.Fprintf(&b, "%s %d", strings.ToUpper(left.color.String()), left.score)
	left.writePenalties(&b)
	fmt.Fprintf(&b, " | %s %s", s.ClockString(), periodLabel(s.Period))
	if s.Timeout.Kind != game.TimeoutNone {
		fmt.Fprintf(&b, " T/O %s %d", s.Timeout.Kind, s.Timeout.Secs)
	}
	b.WriteString(" |")
	right.writePenalties(&b)
	fmt.Fprintf(&b, " %d %s", right.score, strings.ToUpper(right.color.String()))
	if flash {
		b.WriteString(" **")
	}
	return b.String()
}

type side struct {
	color     game.Color
	score     uint8
	penalties []game.Penalty
}

func (sd side) writePenalties(b *strings.Builder) {
	for _, p := range sd.penalties {
		fmt.Fprintf(b, " #%d:%s", p.PlayerNumber, p.Time)
	}
}

func periodLabel(p game.Period) string {
	switch p {
	case game.BetweenGames:
		return "NEXT GAME"
	case game.FirstHalf:
		return "1ST HALF"
	case game.HalfTime:
		return "HALF TIME"
	case game.SecondHalf:
		return "2ND HALF"
	case game.PreOvertime:
		return "PRE OT"
	case game.OvertimeFirstHalf:
		return "OT 1ST HALF"
	case game.OvertimeHalfTime:
		return "OT HALF TIME"
	case game.OvertimeSecondHalf:
		return "OT 2ND HALF"
	case game.PreSuddenDeath:
		return "PRE SD"
	case game.SuddenDeath:
		return "SUDDEN DEATH"
	default:
		return p.String()
	}
}

// LogPanel writes each frame as a log line
type LogPanel struct {
	Logger zerolog.Logger
}

func (p LogPanel) Draw(s game.Snapshot, whiteOnRight, flash bool) {
	p.Logger.Info().
		Uint16("game", s.GameNumber).
		Msg(FormatPanel(s, whiteOnRight, flash))
}
