package agents

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/pkg/logger"
	"github.com/sashabaranov/go-openai"
)

// messagePageSize is the largest page the messages endpoint returns
const messagePageSize = 100

// ResponseItem is one message produced by a run.
type ResponseItem struct {
	MessageID string
	Role      string
	Content   []openai.MessageContent
}

// Text joins the text parts of the item.
func (r ResponseItem) Text() string {
	var parts []string
	for _, c := range r.Content {
		if c.Text != nil && c.Text.Value != "" {
			parts = append(parts, c.Text.Value)
		}
	}
	return strings.Join(parts, "\n")
}

// Agent wraps a created agent definition so it can be invoked on threads.
type Agent struct {
	svc *Service

	mu  sync.Mutex
	def *Definition
}

func NewAgent(svc *Service, def *Definition) *Agent {
	return &Agent{svc: svc, def: def}
}

// ID returns the agent id, or "" once the agent is deleted.
func (a *Agent) ID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.def == nil {
		return ""
	}
	return a.def.ID
}

// Name returns the agent's display name.
func (a *Agent) Name() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.def == nil {
		return ""
	}
	return a.def.Name
}

// Invoke posts prompt on thread, runs the agent and returns the messages the
// run produced, oldest first.
func (a *Agent) Invoke(ctx context.Context, thread *Thread, prompt string) ([]ResponseItem, error) {
	return a.InvokeWithStatus(ctx, thread, prompt, nil)
}

// InvokeWithStatus is Invoke with a callback for run status changes.
func (a *Agent) InvokeWithStatus(ctx context.Context, thread *Thread, prompt string, onStatus StatusFunc) ([]ResponseItem, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	agentID := a.ID()
	if agentID == "" {
		return nil, ErrAgentNotCreated
	}

	thread.busy.Lock()
	defer thread.busy.Unlock()

	threadID, err := thread.ensure(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.For(logger.AGENT).With().Str("agent_id", agentID).Str("thread_id", threadID).Logger()

	if _, err := a.svc.api.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    string(openai.ThreadMessageRoleUser),
		Content: prompt,
	}); err != nil {
		return nil, fmt.Errorf("failed to post message: %w", err)
	}

	run, err := a.svc.api.CreateRun(ctx, threadID, openai.RunRequest{AssistantID: agentID})
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	log.Info().Str("run_id", run.ID).Msg("Started run")

	if _, err := a.svc.waitForRun(ctx, threadID, run.ID, onStatus); err != nil {
		log.Error().Err(err).Str("run_id", run.ID).Msg("Run did not complete")
		return nil, err
	}

	items, err := a.svc.runMessages(ctx, threadID, run.ID)
	if err != nil {
		return nil, err
	}

	log.Info().Str("run_id", run.ID).Int("items", len(items)).Msg("Run completed")
	return items, nil
}

// Delete removes the agent from the service. Calling it again is a no-op.
func (a *Agent) Delete(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.def == nil || a.def.ID == "" {
		return nil
	}
	if err := a.svc.DeleteAgent(ctx, a.def.ID); err != nil {
		return err
	}
	a.def = nil
	return nil
}

func (s *Service) runMessages(ctx context.Context, threadID, runID string) ([]ResponseItem, error) {
	limit := messagePageSize
	order := "asc"

	var items []ResponseItem
	var after *string
	for {
		page, err := s.api.ListMessage(ctx, threadID, &limit, &order, after, nil, &runID)
		if err != nil {
			return nil, fmt.Errorf("failed to list run messages: %w", err)
		}

		for _, m := range page.Messages {
			items = append(items, ResponseItem{
				MessageID: m.ID,
				Role:      m.Role,
				Content:   m.Content,
			})
		}

		if !page.HasMore || page.LastID == nil || *page.LastID == "" {
			return items, nil
		}
		after = page.LastID
	}
}
