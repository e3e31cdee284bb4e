package display

import "github.com/mcdev12/uwh-display/go/internal/game"

// Between-games thresholds shared with the refbox. Above RosterUpperSecs the
// previous result or the next matchup is shown, from PreGameSecs up to
// RosterUpperSecs the rosters, and below PreGameSecs the pre-game screen.
const (
	RosterUpperSecs = 150
	PreGameSecs     = 30
)

// Mode is one of the mutually exclusive screens
type Mode int

const (
	ModeFinalScores Mode = iota
	ModeNextGame
	ModeRoster
	ModePreGame
	ModeInGame
	ModeOvertimeSuddenDeath
)

func (m Mode) String() string {
	switch m {
	case ModeFinalScores:
		return "final_scores"
	case ModeNextGame:
		return "next_game"
	case ModeRoster:
		return "roster"
	case ModePreGame:
		return "pre_game"
	case ModeInGame:
		return "in_game"
	case ModeOvertimeSuddenDeath:
		return "overtime_sudden_death"
	default:
		return "unknown"
	}
}

// HasOverlay reports whether the penalty/flag overlay is drawn in this mode
func (m Mode) HasOverlay() bool {
	return m == ModeInGame || m == ModeOvertimeSuddenDeath
}

// SelectMode picks the screen for s
func SelectMode(s game.Snapshot) Mode {
	switch {
	case s.Period == game.BetweenGames:
		switch {
		case s.SecsInPeriod > RosterUpperSecs:
			if s.IsOldGame {
				return ModeFinalScores
			}
			return ModeNextGame
		case s.SecsInPeriod >= PreGameSecs:
			return ModeRoster
		default:
			return ModePreGame
		}
	case s.Period.IsOvertime():
		return ModeOvertimeSuddenDeath
	default:
		return ModeInGame
	}
}

// Selector wraps SelectMode and clears the overlay when play moves into
// between-games
type Selector struct {
	board   *PenaltyBoard
	last    game.Period
	started bool
}

// NewSelector creates a selector that resets board
func NewSelector(board *PenaltyBoard) *Selector {
	return &Selector{board: board}
}

// Select returns the mode for st
func (s *Selector) Select(st *State) Mode {
	p := st.Snapshot.Period
	if p == game.BetweenGames && s.started && s.last != game.BetweenGames {
		s.board.Reset()
	}
	s.last = p
	s.started = true
	return SelectMode(st.Snapshot)
}

// Renderer draws one screen. Implementations are front-ends; they receive
// the state read-only.
type Renderer interface {
	FinalScores(st *State)
	NextGame(st *State)
	Roster(st *State)
	PreGame(st *State)
	InGame(st *State)
	OvertimeSuddenDeath(st *State)
	Overlay(flags []Flag)
}

// Dispatch invokes exactly one screen on r, plus the overlay where it applies
func Dispatch(r Renderer, mode Mode, st *State, flags []Flag) {
	switch mode {
	case ModeFinalScores:
		r.FinalScores(st)
	case ModeNextGame:
		r.NextGame(st)
	case ModeRoster:
		r.Roster(st)
	case ModePreGame:
		r.PreGame(st)
	case ModeInGame:
		r.InGame(st)
	case ModeOvertimeSuddenDeath:
		r.OvertimeSuddenDeath(st)
	}
	if mode.HasOverlay() {
		r.Overlay(flags)
	}
}
