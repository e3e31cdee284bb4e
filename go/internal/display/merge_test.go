package display

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/uwh-display/go/internal/game"
)

func pngFlag(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func populated() State {
	st := NewState()
	st.Black = TeamInfo{Name: "Seattle", Players: []Player{{Name: "Ann", Number: 4}}}
	st.White = TeamInfo{Name: "Portland"}
	st.BlackFlag = image.NewRGBA(image.Rect(0, 0, 1, 1))
	st.GameID = 17
	st.Pool = "A"
	st.StartTime = "09:30"
	return st
}

func TestMerge_AbsentFieldsAreKept(t *testing.T) {
	before := populated()
	snap := game.Snapshot{Period: game.FirstHalf, SecsInPeriod: 700, BlackScore: 1}

	after := Merge(before, Update{Snapshot: snap}, ImageDecoder{}, zerolog.Nop())

	assert.Equal(t, snap, after.Snapshot)
	assert.Equal(t, before.Black, after.Black)
	assert.Equal(t, before.White, after.White)
	assert.Same(t, before.BlackFlag, after.BlackFlag)
	assert.Equal(t, before.GameID, after.GameID)
	assert.Equal(t, before.Pool, after.Pool)
	assert.Equal(t, before.StartTime, after.StartTime)
}

func TestMerge_PresentFieldsReplace(t *testing.T) {
	gameID := uint32(18)
	pool := "B"
	start := "10:15"
	black := TeamInfo{Name: "Denver", Players: []Player{{Name: "Bo", Number: 9}}, Flag: pngFlag(t)}
	white := TeamInfo{Name: "Austin"}

	after := Merge(populated(), Update{
		Black:     &black,
		White:     &white,
		GameID:    &gameID,
		Pool:      &pool,
		StartTime: &start,
		Snapshot:  game.Snapshot{Period: game.HalfTime},
	}, ImageDecoder{}, zerolog.Nop())

	assert.Equal(t, black, after.Black)
	assert.Equal(t, white, after.White)
	require.NotNil(t, after.BlackFlag)
	assert.Equal(t, 4, after.BlackFlag.Bounds().Dx())
	assert.Nil(t, after.WhiteFlag)
	assert.Equal(t, gameID, after.GameID)
	assert.Equal(t, pool, after.Pool)
	assert.Equal(t, start, after.StartTime)
	assert.Equal(t, game.HalfTime, after.Snapshot.Period)
}

type failingDecoder struct{}

func (failingDecoder) DecodeFlag([]byte) (image.Image, error) {
	return nil, errors.New("unsupported format")
}

func TestMerge_BadFlagDoesNotAbortMerge(t *testing.T) {
	pool := "C"
	white := TeamInfo{Name: "Austin", Flag: []byte("not an image")}

	var logs bytes.Buffer
	after := Merge(populated(), Update{
		White:    &white,
		Pool:     &pool,
		Snapshot: game.Snapshot{Period: game.SecondHalf, WhiteScore: 2},
	}, failingDecoder{}, zerolog.New(&logs))

	assert.Equal(t, "Austin", after.White.Name)
	assert.Nil(t, after.WhiteFlag)
	assert.Equal(t, "C", after.Pool)
	assert.Equal(t, uint8(2), after.Snapshot.WhiteScore)
	assert.Contains(t, logs.String(), "failed to decode team flag")
}

func TestImageDecoder_RejectsGarbage(t *testing.T) {
	_, err := ImageDecoder{}.DecodeFlag([]byte("definitely not a png"))
	assert.Error(t, err)
}

func TestMerge_RemembersHalfDurationBetweenGames(t *testing.T) {
	st := NewState()
	st = Merge(st, Update{Snapshot: game.Snapshot{
		Period:            game.BetweenGames,
		SecsInPeriod:      200,
		NextPeriodLenSecs: game.U32(720),
	}}, nil, zerolog.Nop())
	require.NotNil(t, st.HalfPlayDuration)
	assert.Equal(t, uint32(720), *st.HalfPlayDuration)

	st = Merge(st, Update{Snapshot: game.Snapshot{Period: game.FirstHalf, NextPeriodLenSecs: game.U32(60)}}, nil, zerolog.Nop())
	assert.Equal(t, uint32(720), *st.HalfPlayDuration)

	st = Merge(st, Update{Snapshot: game.Snapshot{Period: game.BetweenGames}}, nil, zerolog.Nop())
	assert.Equal(t, uint32(720), *st.HalfPlayDuration)
}

func TestMerge_IsIdempotent(t *testing.T) {
	pool := "A"
	u := Update{Pool: &pool, Snapshot: game.Snapshot{Period: game.FirstHalf, BlackScore: 3, WhiteScore: 2}}

	once := Merge(NewState(), u, nil, zerolog.Nop())
	twice := Merge(once, u, nil, zerolog.Nop())
	assert.Equal(t, once, twice)
}
