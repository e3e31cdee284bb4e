package teaminfo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Publisher pushes GameInfo to displays subscribed over NATS
type Publisher struct {
	nc      *nats.Conn
	subject string
	logger  zerolog.Logger
}

func NewPublisher(config SubscriberConfig, logger zerolog.Logger) (*Publisher, error) {
	logger = logger.With().Str("component", "teaminfo_publisher").Logger()
	opts := []nats.Option{
		nats.Name("uwh-feed"),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &Publisher{nc: nc, subject: config.Subject, logger: logger}, nil
}

// Publish sends one GameInfo and flushes so it is on the wire on return
func (p *Publisher) Publish(info GameInfo) error {
	msg, err := newGameInfoMsg(p.subject, info)
	if err != nil {
		return err
	}
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish game %d: %w", info.GameID, err)
	}
	if err := p.nc.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	p.logger.Info().
		Str("subject", p.subject).
		Uint32("game_id", info.GameID).
		Msg("published team info")
	return nil
}

func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}

func newGameInfoMsg(subject string, info GameInfo) (*nats.Msg, error) {
	data, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("marshal game info: %w", err)
	}
	return &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Game-ID": []string{strconv.FormatUint(uint64(info.GameID), 10)},
		},
	}, nil
}

type teamsFile struct {
	Games []struct {
		GameInfo  `yaml:",inline"`
		BlackFlag string `yaml:"black_flag"`
		WhiteFlag string `yaml:"white_flag"`
	} `yaml:"games"`
}

// LoadTeams reads a YAML list of games; flag paths are read into the
// team flag bytes
func LoadTeams(path string) ([]GameInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read teams file: %w", err)
	}

	var f teamsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse teams file: %w", err)
	}
	if len(f.Games) == 0 {
		return nil, errors.New("teams file lists no games")
	}

	out := make([]GameInfo, 0, len(f.Games))
	for _, g := range f.Games {
		info := g.GameInfo
		if info.Black.Flag, err = readFlag(g.BlackFlag); err != nil {
			return nil, err
		}
		if info.White.Flag, err = readFlag(g.WhiteFlag); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

func readFlag(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flag: %w", err)
	}
	return data, nil
}
