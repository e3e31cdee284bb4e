package config

import (
	"os"
	"strconv"
	"time"
)

// ApplyEnv overrides file settings with REFBOX_*, UWHSCORES_*, NATS_*,
// HTTP_ADDR, RENDER_FPS and LOG_LEVEL when they are set
func ApplyEnv(cfg *Config) {
	cfg.Refbox.Host = getEnv("REFBOX_HOST", cfg.Refbox.Host)
	cfg.Refbox.Port = getEnvAsInt("REFBOX_PORT", cfg.Refbox.Port)

	cfg.Link.Backoff = getEnvAsDuration("LINK_BACKOFF", cfg.Link.Backoff)
	cfg.Link.MaxFailures = getEnvAsInt("LINK_MAX_FAILURES", cfg.Link.MaxFailures)

	cfg.UWHScores.Enabled = getEnvAsBool("UWHSCORES_ENABLED", cfg.UWHScores.Enabled)
	cfg.UWHScores.URL = getEnv("UWHSCORES_URL", cfg.UWHScores.URL)
	cfg.UWHScores.TournamentID = uint32(getEnvAsInt("UWHSCORES_TOURNAMENT_ID", int(cfg.UWHScores.TournamentID)))

	cfg.NATS.Enabled = getEnvAsBool("NATS_ENABLED", cfg.NATS.Enabled)
	cfg.NATS.URL = getEnv("NATS_URL", cfg.NATS.URL)
	cfg.NATS.Subject = getEnv("NATS_SUBJECT", cfg.NATS.Subject)

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.Render.FPS = getEnvAsInt("RENDER_FPS", cfg.Render.FPS)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
