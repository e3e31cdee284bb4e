package display

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"github.com/mcdev12/uwh-display/go/internal/game"
)

func TestSelectMode_BetweenGamesThresholds(t *testing.T) {
	tests := []struct {
		secs uint32
		old  bool
		want Mode
	}{
		{secs: 600, old: true, want: ModeFinalScores},
		{secs: 151, old: true, want: ModeFinalScores},
		{secs: 151, old: false, want: ModeNextGame},
		{secs: 150, old: true, want: ModeRoster},
		{secs: 150, want: ModeRoster},
		{secs: 31, want: ModeRoster},
		{secs: 30, want: ModeRoster},
		{secs: 29, want: ModePreGame},
		{secs: 0, old: true, want: ModePreGame},
	}

	for _, tt := range tests {
		s := game.Snapshot{Period: game.BetweenGames, SecsInPeriod: tt.secs, IsOldGame: tt.old}
		assert.Equal(t, tt.want, SelectMode(s), "secs=%d old=%v", tt.secs, tt.old)
	}
}

func TestSelectMode_Periods(t *testing.T) {
	tests := map[game.Period]Mode{
		game.FirstHalf:          ModeInGame,
		game.HalfTime:           ModeInGame,
		game.SecondHalf:         ModeInGame,
		game.PreOvertime:        ModeOvertimeSuddenDeath,
		game.OvertimeFirstHalf:  ModeOvertimeSuddenDeath,
		game.OvertimeHalfTime:   ModeOvertimeSuddenDeath,
		game.OvertimeSecondHalf: ModeOvertimeSuddenDeath,
		game.PreSuddenDeath:     ModeOvertimeSuddenDeath,
		game.SuddenDeath:        ModeOvertimeSuddenDeath,
	}
	for period, want := range tests {
		// seconds are irrelevant outside between-games
		for _, secs := range []uint32{0, 29, 150, 900} {
			got := SelectMode(game.Snapshot{Period: period, SecsInPeriod: secs})
			assert.Equal(t, want, got, "%s at %d", period, secs)
			assert.True(t, got.HasOverlay())
		}
	}
}

func TestSelector_ResetsOverlayWhenEnteringBetweenGames(t *testing.T) {
	board := NewPenaltyBoard(clockwork.NewFakeClockAt(time.Unix(0, 0)))
	sel := NewSelector(board)
	penalised := game.Snapshot{
		Period:         game.SecondHalf,
		BlackPenalties: []game.Penalty{{PlayerNumber: 5, Time: game.PenaltyTime{Secs: 60}}},
	}

	st := State{Snapshot: penalised}
	board.Sync(st.Snapshot)
	assert.Equal(t, ModeInGame, sel.Select(&st))
	assert.Len(t, board.Flags(), 1)

	st.Snapshot = game.Snapshot{Period: game.BetweenGames, SecsInPeriod: 300, IsOldGame: true}
	assert.Equal(t, ModeFinalScores, sel.Select(&st))
	assert.Empty(t, board.Flags())

	// staying between games does not touch the board again
	board.Sync(penalised)
	sel.Select(&st)
	assert.Len(t, board.Flags(), 1)
}

type recordingRenderer struct {
	calls []string
	flags [][]Flag
}

func (r *recordingRenderer) FinalScores(*State)         { r.calls = append(r.calls, "final_scores") }
func (r *recordingRenderer) NextGame(*State)            { r.calls = append(r.calls, "next_game") }
func (r *recordingRenderer) Roster(*State)              { r.calls = append(r.calls, "roster") }
func (r *recordingRenderer) PreGame(*State)             { r.calls = append(r.calls, "pre_game") }
func (r *recordingRenderer) InGame(*State)              { r.calls = append(r.calls, "in_game") }
func (r *recordingRenderer) OvertimeSuddenDeath(*State) { r.calls = append(r.calls, "overtime") }
func (r *recordingRenderer) Overlay(flags []Flag) {
	r.calls = append(r.calls, "overlay")
	r.flags = append(r.flags, flags)
}

func TestDispatch_OneBranchPerMode(t *testing.T) {
	tests := map[Mode][]string{
		ModeFinalScores:         {"final_scores"},
		ModeNextGame:            {"next_game"},
		ModeRoster:              {"roster"},
		ModePreGame:             {"pre_game"},
		ModeInGame:              {"in_game", "overlay"},
		ModeOvertimeSuddenDeath: {"overtime", "overlay"},
	}
	for mode, want := range tests {
		r := &recordingRenderer{}
		st := NewState()
		Dispatch(r, mode, &st, nil)
		assert.Equal(t, want, r.calls, mode.String())
	}
}
