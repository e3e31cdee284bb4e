// Package wire implements the fixed-length binary frame exchanged between the
// refbox and its displays. There is no length prefix or delimiter on the
// stream: FrameLen is the only framing information both ends share.
//
// An empty penalty list has no representation distinct from an absent one, so
// Decode always returns a nil slice when a side has no penalties.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/mcdev12/uwh-display/go/internal/game"
)

const (
	// Version is written into the first byte of every frame
	Version = 1

	// FrameLen is the exact size of one encoded frame
	FrameLen = 64

	// MaxPenalties is the number of penalty slots per side
	MaxPenalties = 5

	// MaxScore and MaxPlayerNumber bound the two-digit display fields
	MaxScore        = 99
	MaxPlayerNumber = 99
)

// Frame is one encoded Record
type Frame [FrameLen]byte

// Record is everything a display receives in one tick
type Record struct {
	Snapshot     game.Snapshot
	WhiteOnRight bool
	Flash        bool
}

const (
	offVersion     = 0
	offPeriod      = 1
	offSecs        = 2
	offFlags       = 6
	offNextLen     = 7
	offBlackScore  = 11
	offWhiteScore  = 12
	offTimeoutKind = 13
	offTimeoutSecs = 14
	offGame        = 16
	offNextGame    = 18
	offGoalColor   = 20
	offGoalPlayer  = 21
	offBlackPens   = 22
	offWhitePens   = 43

	penaltySlotLen = 4
)

const (
	flagHasNextLen uint8 = 1 << iota
	flagOldGame
	flagWhiteOnRight
	flagFlash
	flagRecentGoal

	flagsKnown = flagHasNextLen | flagOldGame | flagWhiteOnRight | flagFlash | flagRecentGoal
)

const (
	penaltyKindSecs uint8 = iota
	penaltyKindTotalDismissal
)

// Encode serializes r into a frame
func Encode(r Record) (Frame, error) {
	var f Frame
	s := r.Snapshot

	if err := validate(s); err != nil {
		return f, err
	}

	f[offVersion] = Version
	f[offPeriod] = uint8(s.Period)
	binary.BigEndian.PutUint32(f[offSecs:], s.SecsInPeriod)

	var flags uint8
	if s.NextPeriodLenSecs != nil {
		flags |= flagHasNextLen
		binary.BigEndian.PutUint32(f[offNextLen:], *s.NextPeriodLenSecs)
	}
	if s.IsOldGame {
		flags |= flagOldGame
	}
	if r.WhiteOnRight {
		flags |= flagWhiteOnRight
	}
	if r.Flash {
		flags |= flagFlash
	}
	if s.RecentGoal != nil {
		flags |= flagRecentGoal
		f[offGoalColor] = uint8(s.RecentGoal.Color)
		f[offGoalPlayer] = s.RecentGoal.PlayerNumber
	}
	f[offFlags] = flags

	f[offBlackScore] = s.BlackScore
	f[offWhiteScore] = s.WhiteScore
	f[offTimeoutKind] = uint8(s.Timeout.Kind)
	binary.BigEndian.PutUint16(f[offTimeoutSecs:], s.Timeout.Secs)
	binary.BigEndian.PutUint16(f[offGame:], s.GameNumber)
	binary.BigEndian.PutUint16(f[offNextGame:], s.NextGameNumber)

	putPenalties(f[offBlackPens:offWhitePens], s.BlackPenalties)
	putPenalties(f[offWhitePens:], s.WhitePenalties)

	return f, nil
}

func putPenalties(b []byte, pens []game.Penalty) {
	b[0] = uint8(len(pens))
	for i, p := range pens {
		slot := b[1+i*penaltySlotLen:]
		slot[0] = p.PlayerNumber
		if p.Time.TotalDismissal {
			slot[1] = penaltyKindTotalDismissal
		} else {
			slot[1] = penaltyKindSecs
			binary.BigEndian.PutUint16(slot[2:], p.Time.Secs)
		}
	}
}

func validate(s game.Snapshot) error {
	switch {
	case !s.Period.Valid():
		return fmt.Errorf("%w: period %d", ErrUnencodable, s.Period)
	case s.BlackScore > MaxScore || s.WhiteScore > MaxScore:
		return fmt.Errorf("%w: score %d-%d", ErrUnencodable, s.BlackScore, s.WhiteScore)
	case s.Timeout.Kind > game.TimeoutPenaltyShot:
		return fmt.Errorf("%w: timeout kind %d", ErrUnencodable, s.Timeout.Kind)
	case s.Timeout.Kind == game.TimeoutNone && s.Timeout.Secs != 0:
		return fmt.Errorf("%w: seconds on an empty timeout", ErrUnencodable)
	case len(s.BlackPenalties) > MaxPenalties || len(s.WhitePenalties) > MaxPenalties:
		return fmt.Errorf("%w: more than %d penalties", ErrUnencodable, MaxPenalties)
	}
	if g := s.RecentGoal; g != nil && (g.Color > game.White || g.PlayerNumber > MaxPlayerNumber) {
		return fmt.Errorf("%w: recent goal %v", ErrUnencodable, *g)
	}
	for _, pens := range [][]game.Penalty{s.BlackPenalties, s.WhitePenalties} {
		for _, p := range pens {
			if p.PlayerNumber > MaxPlayerNumber {
				return fmt.Errorf("%w: player number %d", ErrUnencodable, p.PlayerNumber)
			}
			if p.Time.TotalDismissal && p.Time.Secs != 0 {
				return fmt.Errorf("%w: seconds on a total dismissal", ErrUnencodable)
			}
		}
	}
	return nil
}

// Decode parses exactly one frame. It never panics; any malformed input
// yields ErrFrameLength or a *DecodeError.
func Decode(b []byte) (Record, error) {
	var r Record
	if len(b) != FrameLen {
		return r, fmt.Errorf("%w: got %d bytes, want %d", ErrFrameLength, len(b), FrameLen)
	}

	if b[offVersion] != Version {
		return r, invalid(b, offVersion, "version")
	}

	period := game.Period(b[offPeriod])
	if !period.Valid() {
		return r, invalid(b, offPeriod, "period")
	}

	flags := b[offFlags]
	if flags&^flagsKnown != 0 {
		return r, invalid(b, offFlags, "flags")
	}

	s := game.Snapshot{
		Period:         period,
		SecsInPeriod:   binary.BigEndian.Uint32(b[offSecs:]),
		BlackScore:     b[offBlackScore],
		WhiteScore:     b[offWhiteScore],
		IsOldGame:      flags&flagOldGame != 0,
		GameNumber:     binary.BigEndian.Uint16(b[offGame:]),
		NextGameNumber: binary.BigEndian.Uint16(b[offNextGame:]),
	}

	nextLen := binary.BigEndian.Uint32(b[offNextLen:])
	if flags&flagHasNextLen != 0 {
		s.NextPeriodLenSecs = &nextLen
	} else if nextLen != 0 {
		return r, &DecodeError{Offset: offNextLen, Field: "next period length", Value: uint64(nextLen)}
	}

	if s.BlackScore > MaxScore {
		return r, invalid(b, offBlackScore, "black score")
	}
	if s.WhiteScore > MaxScore {
		return r, invalid(b, offWhiteScore, "white score")
	}

	kind := game.TimeoutKind(b[offTimeoutKind])
	if kind > game.TimeoutPenaltyShot {
		return r, invalid(b, offTimeoutKind, "timeout kind")
	}
	s.Timeout = game.Timeout{Kind: kind, Secs: binary.BigEndian.Uint16(b[offTimeoutSecs:])}
	if kind == game.TimeoutNone && s.Timeout.Secs != 0 {
		return r, &DecodeError{Offset: offTimeoutSecs, Field: "timeout seconds", Value: uint64(s.Timeout.Secs)}
	}

	if flags&flagRecentGoal != 0 {
		color := game.Color(b[offGoalColor])
		if color > game.White {
			return r, invalid(b, offGoalColor, "goal color")
		}
		if b[offGoalPlayer] > MaxPlayerNumber {
			return r, invalid(b, offGoalPlayer, "goal player")
		}
		s.RecentGoal = &game.Goal{Color: color, PlayerNumber: b[offGoalPlayer]}
	} else if b[offGoalColor] != 0 || b[offGoalPlayer] != 0 {
		return r, invalid(b, offGoalColor, "goal")
	}

	var err error
	if s.BlackPenalties, err = readPenalties(b, offBlackPens); err != nil {
		return r, err
	}
	if s.WhitePenalties, err = readPenalties(b, offWhitePens); err != nil {
		return r, err
	}

	r.Snapshot = s
	r.WhiteOnRight = flags&flagWhiteOnRight != 0
	r.Flash = flags&flagFlash != 0
	return r, nil
}

func readPenalties(b []byte, off int) ([]game.Penalty, error) {
	count := int(b[off])
	if count > MaxPenalties {
		return nil, invalid(b, off, "penalty count")
	}

	var pens []game.Penalty
	for i := 0; i < MaxPenalties; i++ {
		slotOff := off + 1 + i*penaltySlotLen
		slot := b[slotOff : slotOff+penaltySlotLen]
		if i >= count {
			for j, v := range slot {
				if v != 0 {
					return nil, invalid(b, slotOff+j, "unused penalty slot")
				}
			}
			continue
		}

		if slot[0] > MaxPlayerNumber {
			return nil, invalid(b, slotOff, "penalty player")
		}
		secs := binary.BigEndian.Uint16(slot[2:])
		p := game.Penalty{PlayerNumber: slot[0]}
		switch slot[1] {
		case penaltyKindSecs:
			p.Time.Secs = secs
		case penaltyKindTotalDismissal:
			if secs != 0 {
				return nil, &DecodeError{Offset: slotOff + 2, Field: "dismissal seconds", Value: uint64(secs)}
			}
			p.Time.TotalDismissal = true
		default:
			return nil, invalid(b, slotOff+1, "penalty kind")
		}
		pens = append(pens, p)
	}
	return pens, nil
}

func invalid(b []byte, off int, field string) *DecodeError {
	return &DecodeError{Offset: off, Field: field, Value: uint64(b[off])}
}
