package display

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rs/zerolog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/mcdev12/uwh-display/go/internal/game"
)

// FlagDecoder turns raw flag bytes into a displayable image
type FlagDecoder interface {
	DecodeFlag(data []byte) (image.Image, error)
}

// ImageDecoder decodes any registered image format (png, jpeg, gif, bmp, webp)
type ImageDecoder struct{}

func (ImageDecoder) DecodeFlag(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode flag image: %w", err)
	}
	return img, nil
}

// Merge folds u into st. Every optional field present in u replaces the
// matching field of st; absent fields are kept. The snapshot is always
// replaced. A flag that fails to decode leaves that side without an image.
func Merge(st State, u Update, dec FlagDecoder, logger zerolog.Logger) State {
	if u.Black != nil {
		st.Black = *u.Black
		st.BlackFlag = decodeFlag(dec, game.Black, u.Black.Flag, logger)
	}
	if u.White != nil {
		st.White = *u.White
		st.WhiteFlag = decodeFlag(dec, game.White, u.White.Flag, logger)
	}
	if u.GameID != nil {
		st.GameID = *u.GameID
	}
	if u.Pool != nil {
		st.Pool = *u.Pool
	}
	if u.StartTime != nil {
		st.StartTime = *u.StartTime
	}

	st.Snapshot = u.Snapshot
	if st.Snapshot.Period == game.BetweenGames && st.Snapshot.NextPeriodLenSecs != nil {
		d := *st.Snapshot.NextPeriodLenSecs
		st.HalfPlayDuration = &d
	}
	return st
}

func decodeFlag(dec FlagDecoder, side game.Color, data []byte, logger zerolog.Logger) image.Image {
	if len(data) == 0 || dec == nil {
		return nil
	}
	logger.Debug().Str("team", side.String()).Int("bytes", len(data)).Msg("building flag texture")

	img, err := dec.DecodeFlag(data)
	if err != nil {
		logger.Warn().Err(err).Str("team", side.String()).Msg("failed to decode team flag")
		return nil
	}
	return img
}
