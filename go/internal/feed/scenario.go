package feed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/uwh-display/go/internal/game"
	"github.com/mcdev12/uwh-display/go/internal/wire"
)

// Scenario is a scripted game used in place of a real refbox
type Scenario struct {
	Name  string `yaml:"name"`
	Loop  bool   `yaml:"loop"`
	Steps []Step `yaml:"steps"`
}

// Step publishes one snapshot Repeat times, Interval apart. With Countdown
// set the clock runs down by Interval on each repeat.
type Step struct {
	After        time.Duration `yaml:"after"`
	Repeat       int           `yaml:"repeat"`
	Interval     time.Duration `yaml:"interval"`
	Countdown    bool          `yaml:"countdown"`
	WhiteOnRight bool          `yaml:"white_on_right"`
	Flash        bool          `yaml:"flash"`
	Snapshot     SnapshotSpec  `yaml:"snapshot"`
}

type SnapshotSpec struct {
	Period            game.Period      `yaml:"period"`
	SecsInPeriod      uint32           `yaml:"secs_in_period"`
	NextPeriodLenSecs *uint32          `yaml:"next_period_len_secs"`
	BlackScore        uint8            `yaml:"black_score"`
	WhiteScore        uint8            `yaml:"white_score"`
	BlackPenalties    []PenaltySpec    `yaml:"black_penalties"`
	WhitePenalties    []PenaltySpec    `yaml:"white_penalties"`
	Timeout           game.TimeoutKind `yaml:"timeout"`
	TimeoutSecs       uint16           `yaml:"timeout_secs"`
	IsOldGame         bool             `yaml:"is_old_game"`
	GameNumber        uint16           `yaml:"game_number"`
	NextGameNumber    uint16           `yaml:"next_game_number"`
	RecentGoal        *GoalSpec        `yaml:"recent_goal"`
}

type PenaltySpec struct {
	Player         uint8  `yaml:"player"`
	Secs           uint16 `yaml:"secs"`
	TotalDismissal bool   `yaml:"total_dismissal"`
}

type GoalSpec struct {
	Color  game.Color `yaml:"color"`
	Player uint8      `yaml:"player"`
}

// Snapshot converts the YAML form into a game snapshot
func (s SnapshotSpec) Snapshot() game.Snapshot {
	snap := game.Snapshot{
		Period:            s.Period,
		SecsInPeriod:      s.SecsInPeriod,
		NextPeriodLenSecs: s.NextPeriodLenSecs,
		BlackScore:        s.BlackScore,
		WhiteScore:        s.WhiteScore,
		BlackPenalties:    penalties(s.BlackPenalties),
		WhitePenalties:    penalties(s.WhitePenalties),
		Timeout:           game.Timeout{Kind: s.Timeout, Secs: s.TimeoutSecs},
		IsOldGame:         s.IsOldGame,
		GameNumber:        s.GameNumber,
		NextGameNumber:    s.NextGameNumber,
	}
	if s.RecentGoal != nil {
		snap.RecentGoal = &game.Goal{Color: s.RecentGoal.Color, PlayerNumber: s.RecentGoal.Player}
	}
	return snap
}

func penalties(specs []PenaltySpec) []game.Penalty {
	if len(specs) == 0 {
		return nil
	}
	out := make([]game.Penalty, 0, len(specs))
	for _, p := range specs {
		out = append(out, game.Penalty{
			PlayerNumber: p.Player,
			Time:         game.PenaltyTime{Secs: p.Secs, TotalDismissal: p.TotalDismissal},
		})
	}
	return out
}

// LoadScenario reads a scenario file and checks every step encodes
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, errors.New("scenario has no steps")
	}
	for i, st := range sc.Steps {
		if _, err := wire.Encode(st.record(st.Snapshot.Snapshot())); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		if st.Repeat > 1 && st.Interval <= 0 {
			return nil, fmt.Errorf("step %d: repeat needs a positive interval", i)
		}
	}
	return &sc, nil
}

func (st Step) record(s game.Snapshot) wire.Record {
	return wire.Record{Snapshot: s, WhiteOnRight: st.WhiteOnRight, Flash: st.Flash}
}

// Publisher receives each record in order
type Publisher func(rec wire.Record) error

// Player replays a scenario on a clock
type Player struct {
	clock  clockwork.Clock
	logger zerolog.Logger
}

func NewPlayer(clock clockwork.Clock, logger zerolog.Logger) *Player {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Player{clock: clock, logger: logger}
}

// Play publishes every step, looping if the scenario asks to, until done or
// ctx ends
func (p *Player) Play(ctx context.Context, sc *Scenario, publish Publisher) error {
	for {
		for i, st := range sc.Steps {
			if err := p.wait(ctx, st.After); err != nil {
				return err
			}
			p.logger.Debug().Str("scenario", sc.Name).Int("step", i).Msg("playing step")
			if err := p.playStep(ctx, st, publish); err != nil {
				return err
			}
		}
		if !sc.Loop {
			return nil
		}
	}
}

func (p *Player) playStep(ctx context.Context, st Step, publish Publisher) error {
	snap := st.Snapshot.Snapshot()
	repeat := max(st.Repeat, 1)
	elapsed := uint32(st.Interval / time.Second)

	for i := 0; i < repeat; i++ {
		if i > 0 {
			if err := p.wait(ctx, st.Interval); err != nil {
				return err
			}
			if st.Countdown {
				snap.SecsInPeriod -= min(elapsed, snap.SecsInPeriod)
			}
		}
		if err := publish(st.record(snap)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Player) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-p.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
