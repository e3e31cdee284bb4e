package overlay

import (
	"encoding/json"
	"time"

	"github.com/mcdev12/uwh-display/go/internal/display"
	"github.com/mcdev12/uwh-display/go/internal/game"
)

// OverlayEvent is the envelope sent to websocket clients
type OverlayEvent struct {
	ID        string          `json:"id"`        // Event UUID
	Type      EventType       `json:"type"`      // Event type
	Timestamp time.Time       `json:"timestamp"` // Event creation time
	Data      json.RawMessage `json:"data"`      // Event-specific payload
}

type EventType string

const (
	EventTypeView        EventType = "View"
	EventTypeFeedStopped EventType = "FeedStopped"
)

// View is everything a browser overlay needs to draw one screen
type View struct {
	Mode             string       `json:"mode"`
	Period           string       `json:"period"`
	Clock            string       `json:"clock"`
	SecsInPeriod     uint32       `json:"secs_in_period"`
	GameNumber       uint16       `json:"game_number"`
	NextGameNumber   uint16       `json:"next_game_number"`
	GameID           uint32       `json:"game_id"`
	Pool             string       `json:"pool,omitempty"`
	StartTime        string       `json:"start_time,omitempty"`
	HalfPlayDuration *uint32      `json:"half_play_duration,omitempty"`
	Black            TeamView     `json:"black"`
	White            TeamView     `json:"white"`
	Timeout          *TimeoutView `json:"timeout,omitempty"`
	Flags            []FlagView   `json:"flags,omitempty"`
	RecentGoal       *FlagView    `json:"recent_goal,omitempty"`
}

type TeamView struct {
	Name      string           `json:"name"`
	Score     uint8            `json:"score"`
	HasFlag   bool             `json:"has_flag"`
	Players   []display.Player `json:"players,omitempty"`
	Penalties []PenaltyView    `json:"penalties,omitempty"`
}

type PenaltyView struct {
	PlayerNumber   uint8  `json:"player_number"`
	Time           string `json:"time"`
	Secs           uint16 `json:"secs"`
	TotalDismissal bool   `json:"total_dismissal"`
}

type TimeoutView struct {
	Kind string `json:"kind"`
	Secs uint16 `json:"secs"`
}

type FlagView struct {
	Color        string `json:"color"`
	PlayerNumber uint8  `json:"player_number"`
	Kind         string `json:"kind,omitempty"`
}

// BuildView projects local state onto the wire view for a mode
func BuildView(mode display.Mode, st *display.State) View {
	s := st.Snapshot
	v := View{
		Mode:             mode.String(),
		Period:           s.Period.String(),
		Clock:            s.ClockString(),
		SecsInPeriod:     s.SecsInPeriod,
		GameNumber:       s.GameNumber,
		NextGameNumber:   s.NextGameNumber,
		GameID:           st.GameID,
		Pool:             st.Pool,
		StartTime:        st.StartTime,
		HalfPlayDuration: st.HalfPlayDuration,
		Black:            buildTeam(st, game.Black, s.BlackScore),
		White:            buildTeam(st, game.White, s.WhiteScore),
	}
	if s.Timeout.Kind != game.TimeoutNone {
		v.Timeout = &TimeoutView{Kind: s.Timeout.Kind.String(), Secs: s.Timeout.Secs}
	}
	if s.RecentGoal != nil {
		v.RecentGoal = &FlagView{Color: s.RecentGoal.Color.String(), PlayerNumber: s.RecentGoal.PlayerNumber}
	}
	return v
}

func buildTeam(st *display.State, c game.Color, score uint8) TeamView {
	info := st.Team(c)
	t := TeamView{
		Name:    info.Name,
		Score:   score,
		HasFlag: st.Flag(c) != nil,
		Players: info.Players,
	}
	for _, p := range st.Snapshot.Penalties(c) {
		t.Penalties = append(t.Penalties, PenaltyView{
			PlayerNumber:   p.PlayerNumber,
			Time:           p.Time.String(),
			Secs:           p.Time.Secs,
			TotalDismissal: p.Time.TotalDismissal,
		})
	}
	return t
}

func buildFlags(flags []display.Flag) []FlagView {
	if len(flags) == 0 {
		return nil
	}
	out := make([]FlagView, 0, len(flags))
	for _, f := range flags {
		out = append(out, FlagView{
			Color:        f.Color.String(),
			PlayerNumber: f.PlayerNumber,
			Kind:         f.Kind.String(),
		})
	}
	return out
}
