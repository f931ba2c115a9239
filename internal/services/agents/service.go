// Package agents drives a code interpreter agent on the agent service:
// creating it, conversing on threads, collecting generated files and
// tearing everything down again.
package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/config"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/metrics"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/services/ledger"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/pkg/logger"
	"github.com/sashabaranov/go-openai"
)

// Options tune a Service.
type Options struct {
	Model        string
	PollInterval time.Duration
	RunTimeout   time.Duration
}

type Service struct {
	api          API
	ledger       *ledger.Service
	model        string
	pollInterval time.Duration
	runTimeout   time.Duration
}

func NewService(api API, ledgerService *ledger.Service, opts Options) *Service {
	if opts.PollInterval <= 0 {
		opts.PollInterval = config.DefaultPollInterval
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = config.DefaultRunTimeout
	}
	if ledgerService == nil {
		ledgerService = ledger.NewService(nil)
	}

	return &Service{
		api:          api,
		ledger:       ledgerService,
		model:        opts.Model,
		pollInterval: opts.PollInterval,
		runTimeout:   opts.RunTimeout,
	}
}

// Definition is an agent as created on the service.
type Definition struct {
	ID           string
	Name         string
	Model        string
	Instructions string
	CreatedAt    time.Time
}

// CreateAgent creates an agent with the code interpreter tool enabled.
func (s *Service) CreateAgent(ctx context.Context, def *config.AgentDefinition) (*Definition, error) {
	log := logger.For(logger.AGENT)

	model := def.ModelOr(s.model)
	req := openai.AssistantRequest{
		Model:        model,
		Name:         &def.Name,
		Instructions: &def.Instructions,
		Tools: []openai.AssistantTool{
			{Type: openai.AssistantToolTypeCodeInterpreter},
		},
		Temperature: def.Temperature,
	}
	if def.Description != "" {
		req.Description = &def.Description
	}
	if len(def.Metadata) > 0 {
		req.Metadata = make(map[string]any, len(def.Metadata))
		for k, v := range def.Metadata {
			req.Metadata[k] = v
		}
	}

	assistant, err := s.api.CreateAssistant(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("name", def.Name).Msg("Failed to create agent")
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	if err := s.ledger.Record(ctx, ledger.KindAgent, assistant.ID); err != nil {
		log.Warn().Err(err).Str("agent_id", assistant.ID).Msg("Failed to record agent in ledger")
	}
	metrics.AgentsCreated.Inc()

	log.Info().
		Str("agent_id", assistant.ID).
		Str("name", def.Name).
		Str("model", model).
		Msg("Created agent")

	return &Definition{
		ID:           assistant.ID,
		Name:         def.Name,
		Model:        assistant.Model,
		Instructions: def.Instructions,
		CreatedAt:    time.Unix(assistant.CreatedAt, 0),
	}, nil
}

// DeleteAgent deletes an agent. An empty id is a no-op and an agent that
// is already gone counts as deleted.
func (s *Service) DeleteAgent(ctx context.Context, agentID string) error {
	if agentID == "" {
		return nil
	}
	log := logger.For(logger.AGENT)

	if _, err := s.api.DeleteAssistant(ctx, agentID); err != nil {
		if !IsNotFound(err) {
			return fmt.Errorf("failed to delete agent %s: %w", agentID, err)
		}
		log.Debug().Str("agent_id", agentID).Msg("Agent already deleted")
	} else {
		log.Info().Str("agent_id", agentID).Msg("Deleted agent")
		metrics.AgentsDeleted.Inc()
	}

	if err := s.ledger.Forget(ctx, ledger.KindAgent, agentID); err != nil {
		log.Warn().Err(err).Str("agent_id", agentID).Msg("Failed to drop agent from ledger")
	}
	return nil
}

func (s *Service) createThread(ctx context.Context) (string, error) {
	thread, err := s.api.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}

	if err := s.ledger.Record(ctx, ledger.KindThread, thread.ID); err != nil {
		logger.For(logger.AGENT).Warn().Err(err).Str("thread_id", thread.ID).Msg("Failed to record thread in ledger")
	}
	metrics.ThreadsCreated.Inc()

	logger.For(logger.AGENT).Info().Str("thread_id", thread.ID).Msg("Created thread")
	return thread.ID, nil
}

// DeleteThread deletes a thread by id with the same presence rules as DeleteAgent.
func (s *Service) DeleteThread(ctx context.Context, threadID string) error {
	if threadID == "" {
		return nil
	}
	log := logger.For(logger.AGENT)

	if _, err := s.api.DeleteThread(ctx, threadID); err != nil {
		if !IsNotFound(err) {
			return fmt.Errorf("failed to delete thread %s: %w", threadID, err)
		}
		log.Debug().Str("thread_id", threadID).Msg("Thread already deleted")
	} else {
		log.Info().Str("thread_id", threadID).Msg("Deleted thread")
		metrics.ThreadsDeleted.Inc()
	}

	if err := s.ledger.Forget(ctx, ledger.KindThread, threadID); err != nil {
		log.Warn().Err(err).Str("thread_id", threadID).Msg("Failed to drop thread from ledger")
	}
	return nil
}
