package panelsim

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/mcdev12/uwh-display/go/internal/game"
)

func TestFormatPanel(t *testing.T) {
	snap := game.Snapshot{
		Period:         game.FirstHalf,
		SecsInPeriod:   754,
		BlackScore:     3,
		WhiteScore:     2,
		WhitePenalties: []game.Penalty{{PlayerNumber: 9, Time: game.PenaltyTime{Secs: 61}}},
	}

	tests := []struct {
		name         string
		snap         game.Snapshot
		whiteOnRight bool
		flash        bool
		want         string
	}{
		{
			name:         "white on right",
			snap:         snap,
			whiteOnRight: true,
			want:         "BLACK 3 | 12:34 1ST HALF | #9:1:01 2 WHITE",
		},
		{
			name: "white on left",
			snap: snap,
			want: "WHITE 2 #9:1:01 | 12:34 1ST HALF | 3 BLACK",
		},
		{
			name:         "flashing timeout",
			snap:         game.Snapshot{Period: game.SuddenDeath, SecsInPeriod: 5, Timeout: game.Timeout{Kind: game.TimeoutRef, Secs: 12}},
			whiteOnRight: true,
			flash:        true,
			want:         "** BLACK 0 | 0:05 SUDDEN DEATH T/O ref 12 | 0 WHITE **",
		},
		{
			name:         "total dismissal",
			snap:         game.Snapshot{Period: game.HalfTime, BlackPenalties: []game.Penalty{{PlayerNumber: 1, Time: game.PenaltyTime{TotalDismissal: true}}}},
			whiteOnRight: true,
			want:         "BLACK 0 #1:TD | 0:00 HALF TIME | 0 WHITE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPanel(tt.snap, tt.whiteOnRight, tt.flash))
		})
	}
}

func TestLogPanel_Draw(t *testing.T) {
	var buf bytes.Buffer
	LogPanel{Logger: zerolog.New(&buf)}.Draw(game.Snapshot{Period: game.BetweenGames, GameNumber: 14}, true, false)

	assert.Contains(t, buf.String(), `"game":14`)
	assert.Contains(t, buf.String(), "NEXT GAME")
}
