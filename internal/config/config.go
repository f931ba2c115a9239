package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Auth modes accepted in AZURE_AUTH_MODE
const (
	AuthModeKey     = "key"
	AuthModeDefault = "default"
	AuthModeCLI     = "cli"
	AuthModeToken   = "token"
)

const (
	DefaultTokenScope   = "https://cognitiveservices.azure.com/.default"
	DefaultAPIVersion   = "2024-05-01-preview"
	DefaultOutputDir    = "./output"
	DefaultListenAddr   = ":8080"
	DefaultPollInterval = time.Second
	DefaultRunTimeout   = 5 * time.Minute
)

var ErrMissingSetting = errors.New("missing required setting")

// Config holds everything needed to talk to the agent service.
type Config struct {
	ProjectEndpoint     string
	ModelDeploymentName string

	AuthMode    string
	APIKey      string
	AccessToken string
	TokenScope  string
	APIVersion  string

	OutputDir           string
	PollInterval        time.Duration
	RunTimeout          time.Duration
	AgentDefinitionPath string

	RedisURL      string
	RedisPassword string

	ListenAddr string
}

// Load reads configuration from a .env file, if any, and the environment.
func Load() (*Config, error) {
	LoadEnvFile()
	return FromEnv()
}

// LoadEnvFile reads a .env file from the working directory when there is
// one. Variables already set in the environment win. Settings read at
// startup (log level, JWT secret) are applied again afterwards.
func LoadEnvFile() {
	if err := godotenv.Load(); err != nil {
		return
	}
	logger.ApplyLevel()
	log.Debug().Msg("Loaded settings from .env file")

	if secret := GetEnvOrDefault("JWT_SECRET", ""); secret != "" {
		SetJWTSecret([]byte(secret))
	}
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ProjectEndpoint:     strings.TrimRight(GetEnvOrDefault("PROJECT_ENDPOINT", ""), "/"),
		ModelDeploymentName: GetEnvOrDefault("MODEL_DEPLOYMENT_NAME", ""),
		AuthMode:            strings.ToLower(GetEnvOrDefault("AZURE_AUTH_MODE", AuthModeDefault)),
		APIKey:              GetEnvOrDefault("AZURE_API_KEY", ""),
		AccessToken:         GetEnvOrDefault("AZURE_ACCESS_TOKEN", ""),
		TokenScope:          GetEnvOrDefault("AZURE_TOKEN_SCOPE", DefaultTokenScope),
		APIVersion:          GetEnvOrDefault("API_VERSION", DefaultAPIVersion),
		OutputDir:           GetEnvOrDefault("OUTPUT_DIR", DefaultOutputDir),
		PollInterval:        parseEnvDuration("RUN_POLL_INTERVAL", DefaultPollInterval),
		RunTimeout:          parseEnvDuration("RUN_TIMEOUT", DefaultRunTimeout),
		AgentDefinitionPath: GetEnvOrDefault("AGENT_DEFINITION", ""),
		RedisURL:            GetEnvOrDefault("REDIS_URL", ""),
		RedisPassword:       GetEnvOrDefault("REDIS_PASSWORD", ""),
		ListenAddr:          GetEnvOrDefault("LISTEN_ADDR", DefaultListenAddr),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("endpoint", cfg.ProjectEndpoint).
		Str("deployment", cfg.ModelDeploymentName).
		Str("auth_mode", cfg.AuthMode).
		Msg("Configuration loaded")

	return cfg, nil
}

// Validate checks that required settings are present for the chosen auth mode.
func (c *Config) Validate() error {
	if c.ProjectEndpoint == "" {
		return fmt.Errorf("%w: PROJECT_ENDPOINT", ErrMissingSetting)
	}
	if c.ModelDeploymentName == "" {
		return fmt.Errorf("%w: MODEL_DEPLOYMENT_NAME", ErrMissingSetting)
	}

	switch c.AuthMode {
	case AuthModeKey:
		if c.APIKey == "" {
			return fmt.Errorf("%w: AZURE_API_KEY (auth mode %q)", ErrMissingSetting, c.AuthMode)
		}
	case AuthModeToken:
		if c.AccessToken == "" {
			return fmt.Errorf("%w: AZURE_ACCESS_TOKEN (auth mode %q)", ErrMissingSetting, c.AuthMode)
		}
	case AuthModeDefault, AuthModeCLI:
	default:
		return fmt.Errorf("unknown auth mode %q", c.AuthMode)
	}

	return nil
}
