// Package config loads the YAML settings shared by the display binaries.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Refbox    RefboxConfig    `yaml:"refbox"`
	Link      LinkConfig      `yaml:"link"`
	Handoff   HandoffConfig   `yaml:"handoff"`
	UWHScores UWHScoresConfig `yaml:"uwhscores"`
	NATS      NATSConfig      `yaml:"nats"`
	HTTP      HTTPConfig      `yaml:"http"`
	Render    RenderConfig    `yaml:"render"`
	Log       LogConfig       `yaml:"log"`
}

// RefboxConfig is where the authoritative game clock listens
type RefboxConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LinkConfig struct {
	Backoff     time.Duration `yaml:"backoff"`
	MaxFailures int           `yaml:"max_failures"`
}

type HandoffConfig struct {
	Capacity int `yaml:"capacity"`
}

type UWHScoresConfig struct {
	Enabled      bool   `yaml:"enabled"`
	URL          string `yaml:"url"`
	TournamentID uint32 `yaml:"tournament_id"`
}

type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type RenderConfig struct {
	FPS            int    `yaml:"fps"`
	TournamentLogo string `yaml:"tournament_logo"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the settings used when no file exists
func Default() Config {
	return Config{
		Refbox:    RefboxConfig{Host: "127.0.0.1", Port: 8000},
		Link:      LinkConfig{Backoff: 500 * time.Millisecond, MaxFailures: 20},
		Handoff:   HandoffConfig{Capacity: 3},
		UWHScores: UWHScoresConfig{URL: "https://uwhscores.com/api/v1"},
		NATS:      NATSConfig{URL: "nats://localhost:4222", Subject: "uwh.teaminfo"},
		HTTP:      HTTPConfig{Addr: ":8081"},
		Render:    RenderConfig{FPS: 60},
		Log:       LogConfig{Level: "info"},
	}
}

// RefboxAddr returns host:port for dialing the refbox
func (c Config) RefboxAddr() string {
	return net.JoinHostPort(c.Refbox.Host, strconv.Itoa(c.Refbox.Port))
}

// Validate reports every setting that cannot be used
func (c Config) Validate() error {
	var errs []error
	if c.Refbox.Host == "" {
		errs = append(errs, errors.New("refbox.host is required"))
	}
	if c.Refbox.Port <= 0 || c.Refbox.Port > 65535 {
		errs = append(errs, fmt.Errorf("refbox.port %d out of range", c.Refbox.Port))
	}
	if c.Link.Backoff < 0 {
		errs = append(errs, fmt.Errorf("link.backoff %s is negative", c.Link.Backoff))
	}
	if c.Link.MaxFailures <= 0 {
		errs = append(errs, fmt.Errorf("link.max_failures must be positive, got %d", c.Link.MaxFailures))
	}
	if c.Handoff.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("handoff.capacity must be positive, got %d", c.Handoff.Capacity))
	}
	if c.UWHScores.Enabled && c.UWHScores.TournamentID == 0 {
		errs = append(errs, errors.New("uwhscores.tournament_id is required when uwhscores is enabled"))
	}
	if c.Render.FPS <= 0 {
		errs = append(errs, fmt.Errorf("render.fps must be positive, got %d", c.Render.FPS))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// Load reads the YAML file at path. A missing or unparsable file is
// replaced with the defaults, which are also returned.
func Load(path string, logger zerolog.Logger) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("failed to read config file, overwriting with default")
		cfg = Default()
		if err := Store(path, cfg); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// Store writes cfg to path as YAML, creating parent directories
func Store(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
