package game

import (
	"fmt"
	"strings"
)

// Period identifies the phase of a game as reported by the refbox
type Period uint8

const (
	BetweenGames Period = iota
	FirstHalf
	HalfTime
	SecondHalf
	PreOvertime
	OvertimeFirstHalf
	OvertimeHalfTime
	OvertimeSecondHalf
	PreSuddenDeath
	SuddenDeath
)

// LastPeriod is the highest valid Period value
const LastPeriod = SuddenDeath

var periodNames = [...]string{
	BetweenGames:       "BetweenGames",
	FirstHalf:          "FirstHalf",
	HalfTime:           "HalfTime",
	SecondHalf:         "SecondHalf",
	PreOvertime:        "PreOvertime",
	OvertimeFirstHalf:  "OvertimeFirstHalf",
	OvertimeHalfTime:   "OvertimeHalfTime",
	OvertimeSecondHalf: "OvertimeSecondHalf",
	PreSuddenDeath:     "PreSuddenDeath",
	SuddenDeath:        "SuddenDeath",
}

func (p Period) String() string {
	if p.Valid() {
		return periodNames[p]
	}
	return fmt.Sprintf("Period(%d)", uint8(p))
}

// Valid reports whether p is a known period
func (p Period) Valid() bool {
	return p <= LastPeriod
}

// IsRegulation reports whether p is part of regular play (halves and half-time)
func (p Period) IsRegulation() bool {
	switch p {
	case FirstHalf, HalfTime, SecondHalf:
		return true
	}
	return false
}

// IsOvertime reports whether p is any overtime or sudden-death variant
func (p Period) IsOvertime() bool {
	switch p {
	case PreOvertime, OvertimeFirstHalf, OvertimeHalfTime, OvertimeSecondHalf, PreSuddenDeath, SuddenDeath:
		return true
	}
	return false
}

// Color is a team color
type Color uint8

const (
	Black Color = iota
	White
)

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return fmt.Sprintf("Color(%d)", uint8(c))
	}
}

// TimeoutKind says who, if anyone, has called a timeout
type TimeoutKind uint8

const (
	TimeoutNone TimeoutKind = iota
	TimeoutBlack
	TimeoutWhite
	TimeoutRef
	TimeoutPenaltyShot
)

func (k TimeoutKind) String() string {
	switch k {
	case TimeoutNone:
		return "none"
	case TimeoutBlack:
		return "black"
	case TimeoutWhite:
		return "white"
	case TimeoutRef:
		return "ref"
	case TimeoutPenaltyShot:
		return "penalty_shot"
	default:
		return fmt.Sprintf("TimeoutKind(%d)", uint8(k))
	}
}

// Timeout is the timeout status with its remaining seconds
type Timeout struct {
	Kind TimeoutKind
	Secs uint16
}

// PenaltyTime is either a countdown in seconds or a total dismissal
type PenaltyTime struct {
	Secs           uint16
	TotalDismissal bool
}

func (t PenaltyTime) String() string {
	if t.TotalDismissal {
		return "TD"
	}
	return fmt.Sprintf("%d:%02d", t.Secs/60, t.Secs%60)
}

// Penalty is a single player's penalty as shown on the displays
type Penalty struct {
	PlayerNumber uint8
	Time         PenaltyTime
}

// Goal identifies the most recently scored goal
type Goal struct {
	Color        Color
	PlayerNumber uint8
}

// Snapshot is the authoritative point-in-time game state. It is produced by the
// refbox; consumers only serialize, merge and display it.
type Snapshot struct {
	Period            Period
	SecsInPeriod      uint32
	NextPeriodLenSecs *uint32
	BlackScore        uint8
	WhiteScore        uint8
	BlackPenalties    []Penalty
	WhitePenalties    []Penalty
	Timeout           Timeout
	IsOldGame         bool
	GameNumber        uint16
	NextGameNumber    uint16
	RecentGoal        *Goal
}

// Penalties returns the penalty list for the given side
func (s Snapshot) Penalties(c Color) []Penalty {
	if c == White {
		return s.WhitePenalties
	}
	return s.BlackPenalties
}

// ClockString formats the remaining period time as M:SS
func (s Snapshot) ClockString() string {
	return fmt.Sprintf("%d:%02d", s.SecsInPeriod/60, s.SecsInPeriod%60)
}

func (s Snapshot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s B%d-W%d game=%d", s.Period, s.ClockString(), s.BlackScore, s.WhiteScore, s.GameNumber)
	if s.Timeout.Kind != TimeoutNone {
		fmt.Fprintf(&b, " timeout=%s(%ds)", s.Timeout.Kind, s.Timeout.Secs)
	}
	if s.IsOldGame {
		b.WriteString(" old")
	}
	return b.String()
}

// U32 returns a pointer to v, for optional snapshot fields
func U32(v uint32) *uint32 {
	return &v
}
