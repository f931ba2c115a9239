package foundry

import (
	"net/http"
	"sync"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/config"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/credential"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// Service owns the client for the project's agent endpoint.
type Service struct {
	mu     sync.RWMutex
	client *openai.Client
	doer   openai.HTTPDoer
	closed bool
}

func NewService(cfg *config.Config, cred *credential.Credential) *Service {
	log.Info().
		Str("endpoint", cfg.ProjectEndpoint).
		Str("api_version", cfg.APIVersion).
		Str("credential", string(cred.Kind())).
		Msg("Initialising agent service client")

	clientCfg := cred.ClientConfig(cfg.ProjectEndpoint, cfg.APIVersion)

	return &Service{
		client: openai.NewClientWithConfig(clientCfg),
		doer:   clientCfg.HTTPClient,
	}
}

// GetClient returns the underlying client, or nil once the service is closed.
func (s *Service) GetClient() *openai.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// Close drops the client and its idle connections. Later calls are no-ops.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.client = nil

	if hc, ok := s.doer.(*http.Client); ok {
		hc.CloseIdleConnections()
	}

	log.Debug().Msg("Agent service client closed")
	return nil
}
