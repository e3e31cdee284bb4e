package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriod_Text(t *testing.T) {
	for p := BetweenGames; p <= LastPeriod; p++ {
		text, err := p.MarshalText()
		require.NoError(t, err)

		var got Period
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, p, got)
	}

	_, err := Period(42).MarshalText()
	assert.Error(t, err)

	var p Period
	assert.Error(t, p.UnmarshalText([]byte("ThirdHalf")))
}

func TestColor_Text(t *testing.T) {
	var c Color
	require.NoError(t, c.UnmarshalText([]byte("white")))
	assert.Equal(t, White, c)
	assert.Error(t, c.UnmarshalText([]byte("green")))
}

func TestTimeoutKind_Text(t *testing.T) {
	var k TimeoutKind
	require.NoError(t, k.UnmarshalText([]byte("penalty_shot")))
	assert.Equal(t, TimeoutPenaltyShot, k)
	assert.Error(t, k.UnmarshalText([]byte("coffee")))
}

func TestPeriod_Predicates(t *testing.T) {
	tests := []struct {
		period     Period
		regulation bool
		overtime   bool
	}{
		{BetweenGames, false, false},
		{FirstHalf, true, false},
		{HalfTime, true, false},
		{SecondHalf, true, false},
		{PreOvertime, false, true},
		{OvertimeSecondHalf, false, true},
		{SuddenDeath, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.period.String(), func(t *testing.T) {
			assert.Equal(t, tt.regulation, tt.period.IsRegulation())
			assert.Equal(t, tt.overtime, tt.period.IsOvertime())
		})
	}
}
