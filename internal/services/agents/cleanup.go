package agents

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/services/ledger"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/pkg/logger"
)

// Cleanup tears a session down in a fixed order: thread, agent, client,
// credential. Nil parts are skipped. Every step runs even if an earlier one
// fails, and running it twice is harmless.
type Cleanup struct {
	Thread     *Thread
	Agent      *Agent
	Client     io.Closer
	Credential io.Closer
}

func (c *Cleanup) Run(ctx context.Context) error {
	log := logger.For(logger.CLEANUP)

	steps := []struct {
		name string
		fn   func() error
	}{
		{"thread", func() error {
			if c.Thread == nil {
				return nil
			}
			return c.Thread.Delete(ctx)
		}},
		{"agent", func() error {
			if c.Agent == nil {
				return nil
			}
			return c.Agent.Delete(ctx)
		}},
		{"client", func() error {
			if c.Client == nil {
				return nil
			}
			return c.Client.Close()
		}},
		{"credential", func() error {
			if c.Credential == nil {
				return nil
			}
			return c.Credential.Close()
		}},
	}

	var errs []error
	for _, step := range steps {
		if err := step.fn(); err != nil {
			log.Error().Err(err).Str("step", step.name).Msg("Cleanup step failed")
			errs = append(errs, fmt.Errorf("cleanup %s: %w", step.name, err))
			continue
		}
		log.Debug().Str("step", step.name).Msg("Cleanup step done")
	}

	return errors.Join(errs...)
}

// Sweep deletes every thread and then every agent recorded by sessions
// that are no longer alive, and reports how many it removed. Resources of
// running sessions, this one included, are left alone.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	log := logger.For(logger.CLEANUP)

	threads, err := s.ledger.Orphans(ctx, ledger.KindThread)
	if err != nil {
		return 0, fmt.Errorf("failed to list orphaned threads: %w", err)
	}
	agentEntries, err := s.ledger.Orphans(ctx, ledger.KindAgent)
	if err != nil {
		return 0, fmt.Errorf("failed to list orphaned agents: %w", err)
	}

	removed := 0
	var errs []error
	sessions := make(map[string]struct{})
	sweep := func(e ledger.Entry, del func(context.Context, string) error) {
		sessions[e.Session] = struct{}{}
		if err := del(ctx, e.ID); err != nil {
			errs = append(errs, err)
			return
		}
		if err := s.ledger.ForgetEntry(ctx, e); err != nil {
			log.Warn().Err(err).Str("id", e.ID).Str("session", e.Session).Msg("Failed to drop swept resource from ledger")
		}
		removed++
	}

	for _, e := range threads {
		sweep(e, s.DeleteThread)
	}
	for _, e := range agentEntries {
		sweep(e, s.DeleteAgent)
	}

	for session := range sessions {
		if err := s.ledger.Prune(ctx, session); err != nil {
			log.Warn().Err(err).Str("session", session).Msg("Failed to prune ledger session")
		}
	}

	log.Info().Int("removed", removed).Int("failed", len(errs)).Msg("Swept leftover resources")
	return removed, errors.Join(errs...)
}
