package config

import (
	"time"

	"github.com/rs/zerolog/log"
)

type RateLimitConfig struct {
	Enabled bool
	MaxHits int
	Window  time.Duration
}

func GetRateLimitConfig(key string) RateLimitConfig {
	enabled := GetEnvOrDefault("RATELIMIT_ENABLED", "false") == "true"

	configs := map[string]RateLimitConfig{
		"runs": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_RUNS", 20), // runs start code execution, keep them scarce
			Window:  time.Minute,
		},
		"files": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_FILES", 120),
			Window:  time.Minute,
		},
		"ws": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_WS", 10),
			Window:  time.Minute,
		},
	}

	if config, exists := configs[key]; exists {
		return config
	}

	log.Warn().Str("key", key).Msg("No rate limit config found")
	return RateLimitConfig{Enabled: false}
}
