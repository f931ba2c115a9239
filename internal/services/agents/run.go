package agents

import (
	"context"
	"time"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/metrics"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/pkg/logger"
	"github.com/sashabaranov/go-openai"
)

const cancelTimeout = 10 * time.Second

// StatusFunc observes run status changes.
type StatusFunc func(runID string, status openai.RunStatus)

// waitForRun polls a run until it reaches a terminal status.
func (s *Service) waitForRun(ctx context.Context, threadID, runID string, onStatus StatusFunc) (openai.Run, error) {
	log := logger.For(logger.AGENT)
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var last openai.RunStatus
	for {
		run, err := s.api.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			if ctx.Err() != nil {
				s.cancelRun(threadID, runID)
				return run, ctx.Err()
			}
			return run, err
		}

		if run.Status != last {
			last = run.Status
			log.Debug().Str("run_id", runID).Str("status", string(run.Status)).Msg("Run status changed")
			if onStatus != nil {
				onStatus(runID, run.Status)
			}
		}

		switch run.Status {
		case openai.RunStatusCompleted:
			s.observeRun(run, started)
			return run, nil

		case openai.RunStatusRequiresAction:
			s.cancelRun(threadID, runID)
			s.observeRun(run, started)
			return run, ErrRequiresAction

		case openai.RunStatusFailed, openai.RunStatusExpired, openai.RunStatusCancelled, openai.RunStatusIncomplete:
			s.observeRun(run, started)
			runErr := &RunError{RunID: runID, Status: run.Status}
			if run.LastError != nil {
				runErr.Code = string(run.LastError.Code)
				runErr.Message = run.LastError.Message
			}
			return run, runErr
		}

		select {
		case <-ctx.Done():
			s.cancelRun(threadID, runID)
			return run, ctx.Err()
		case <-ticker.C:
		}
	}
}

// cancelRun asks the service to stop a run we are abandoning. It uses its
// own context because the caller's is usually already done.
func (s *Service) cancelRun(threadID, runID string) {
	ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
	defer cancel()

	if _, err := s.api.CancelRun(ctx, threadID, runID); err != nil {
		logger.For(logger.AGENT).Warn().Err(err).Str("run_id", runID).Msg("Failed to cancel run")
	}
}

func (s *Service) observeRun(run openai.Run, started time.Time) {
	metrics.RunsFinished.WithLabelValues(string(run.Status)).Inc()
	metrics.RunDuration.Observe(time.Since(started).Seconds())
}
