// Package teaminfo looks up team names, rosters and flags for the game the
// refbox is running, either from the uwhscores API or from pushed NATS
// messages.
package teaminfo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mcdev12/uwh-display/go/internal/display"
)

// GameInfo is everything the overlay needs to know about one game beyond
// the snapshot
type GameInfo struct {
	GameID    uint32           `json:"game_id" yaml:"game_id"`
	Pool      string           `json:"pool" yaml:"pool"`
	StartTime string           `json:"start_time" yaml:"start_time"`
	Black     display.TeamInfo `json:"black" yaml:"black"`
	White     display.TeamInfo `json:"white" yaml:"white"`
}

// Apply fills the optional fields of u from g
func (g GameInfo) Apply(u *display.Update) {
	black, white := g.Black, g.White
	gameID, pool, start := g.GameID, g.Pool, g.StartTime
	u.Black = &black
	u.White = &white
	u.GameID = &gameID
	u.Pool = &pool
	u.StartTime = &start
}

type gameResponse struct {
	Game struct {
		GID       uint32 `json:"gid"`
		Pool      string `json:"pool"`
		StartTime string `json:"start_time"`
		Black     string `json:"black"`
		BlackID   uint32 `json:"black_id"`
		White     string `json:"white"`
		WhiteID   uint32 `json:"white_id"`
	} `json:"game"`
}

type teamResponse struct {
	Team struct {
		Name    string `json:"name"`
		FlagURL string `json:"flag_url"`
		Roster  []struct {
			Name   string `json:"name"`
			Number uint8  `json:"number"`
		} `json:"roster"`
	} `json:"team"`
}

// UWHScoresClient reads tournament data from the uwhscores API
type UWHScoresClient struct {
	*BaseClient
	tournamentID uint32
	logger       zerolog.Logger
}

func NewUWHScoresClient(baseURL string, tournamentID uint32, logger zerolog.Logger) *UWHScoresClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &UWHScoresClient{
		BaseClient:   NewBaseClient(baseURL),
		tournamentID: tournamentID,
		logger:       logger,
	}

	client.SetHeader(JsonHeader, JsonContentType)

	return client
}

// GetGame returns the schedule entry for a game
func (c *UWHScoresClient) GetGame(ctx context.Context, gameID uint32) (*gameResponse, error) {
	body, err := c.Get(ctx, fmt.Sprintf(gamePath, c.tournamentID, gameID))
	if err != nil {
		return nil, fmt.Errorf("get game %d: %w", gameID, err)
	}

	var resp gameResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal game %d: %w", gameID, err)
	}
	return &resp, nil
}

// GetTeam returns a team with its roster and flag image
func (c *UWHScoresClient) GetTeam(ctx context.Context, teamID uint32) (display.TeamInfo, error) {
	body, err := c.Get(ctx, fmt.Sprintf(teamPath, c.tournamentID, teamID))
	if err != nil {
		return display.TeamInfo{}, fmt.Errorf("get team %d: %w", teamID, err)
	}

	var resp teamResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return display.TeamInfo{}, fmt.Errorf("unmarshal team %d: %w", teamID, err)
	}

	team := display.TeamInfo{Name: resp.Team.Name}
	for _, p := range resp.Team.Roster {
		team.Players = append(team.Players, display.Player{Name: p.Name, Number: p.Number})
	}

	if resp.Team.FlagURL != "" {
		flag, err := c.GetFlag(ctx, resp.Team.FlagURL)
		if err != nil {
			c.logger.Warn().Err(err).Uint32("team_id", teamID).Msg("failed to fetch team flag")
		} else {
			team.Flag = flag
		}
	}
	return team, nil
}

// GetFlag downloads raw flag image bytes
func (c *UWHScoresClient) GetFlag(ctx context.Context, url string) ([]byte, error) {
	return c.Get(ctx, url)
}

// FetchGame implements Fetcher
func (c *UWHScoresClient) FetchGame(ctx context.Context, gameNumber uint16) (GameInfo, error) {
	g, err := c.GetGame(ctx, uint32(gameNumber))
	if err != nil {
		return GameInfo{}, err
	}

	black, err := c.GetTeam(ctx, g.Game.BlackID)
	if err != nil {
		return GameInfo{}, err
	}
	white, err := c.GetTeam(ctx, g.Game.WhiteID)
	if err != nil {
		return GameInfo{}, err
	}

	return GameInfo{
		GameID:    uint32(gameNumber),
		Pool:      g.Game.Pool,
		StartTime: g.Game.StartTime,
		Black:     black,
		White:     white,
	}, nil
}
