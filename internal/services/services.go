package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/config"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/credential"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/infrastructure/foundry"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/infrastructure/redis"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/services/agents"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/services/ledger"
	"github.com/rs/zerolog/log"
)

var (
	// Mutex for thread-safe initialization
	servicesMu sync.RWMutex
)

type Services struct {
	credential     *credential.Credential
	foundryService *foundry.Service
	redisService   *redis.Service
	ledgerService  *ledger.Service
	agentService   *agents.Service
}

// InitializeServices builds the credential, the agent service client and
// the services layered on top of them.
func InitializeServices(cfg *config.Config) (*Services, error) {
	servicesMu.Lock()
	defer servicesMu.Unlock()

	log.Info().Msg("Initializing core services")

	cred, err := credential.New(cfg)
	if err != nil {
		log.Error().Err(err).Str("mode", cfg.AuthMode).Msg("Failed to initialize credential")
		return nil, fmt.Errorf("failed to initialize credential: %w", err)
	}
	log.Info().Str("kind", string(cred.Kind())).Msg("Initializing credential")

	foundryService := foundry.NewService(cfg, cred)

	// Initialize Redis service (optional)
	redisService := redis.NewService(cfg)
	log.Info().Msg("Initializing Redis service")

	ledgerService := ledger.NewService(redisService)
	ledgerService.Start()
	log.Info().Str("session", ledgerService.Session()).Msg("Initializing resource ledger")

	agentService := agents.NewService(foundryService.GetClient(), ledgerService, agents.Options{
		Model:        cfg.ModelDeploymentName,
		PollInterval: cfg.PollInterval,
		RunTimeout:   cfg.RunTimeout,
	})
	log.Info().Msg("Initializing agent service")

	log.Info().Msg("All services initialized successfully")

	return &Services{
		credential:     cred,
		foundryService: foundryService,
		redisService:   redisService,
		ledgerService:  ledgerService,
		agentService:   agentService,
	}, nil
}

// GetAgentService returns the agent service
func (s *Services) GetAgentService() *agents.Service {
	return s.agentService
}

// GetLedgerService returns the resource ledger
func (s *Services) GetLedgerService() *ledger.Service {
	return s.ledgerService
}

// Cleanup returns the teardown sequence for a session that used thread and
// agent. Either may be nil.
func (s *Services) Cleanup(thread *agents.Thread, agent *agents.Agent) *agents.Cleanup {
	return &agents.Cleanup{
		Thread:     thread,
		Agent:      agent,
		Client:     s.foundryService,
		Credential: s.credential,
	}
}

// Shutdown runs the cleanup sequence, ends the ledger session and then
// releases Redis.
func (s *Services) Shutdown(ctx context.Context, thread *agents.Thread, agent *agents.Agent) error {
	err := s.Cleanup(thread, agent).Run(ctx)

	if closeErr := s.ledgerService.Close(ctx); closeErr != nil {
		log.Warn().Err(closeErr).Msg("Failed to release ledger session")
	}

	if s.redisService != nil {
		if closeErr := s.redisService.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close Redis connection")
		}
	}

	return err
}
