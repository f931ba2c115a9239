package agents

import (
	"context"
)

// Runner serves one shared agent to many callers, each addressing its
// conversation by thread id.
type Runner struct {
	svc   *Service
	agent *Agent
}

func NewRunner(svc *Service, agent *Agent) *Runner {
	return &Runner{svc: svc, agent: agent}
}

// Invoke runs prompt on threadID, or on a new thread when threadID is
// empty, and returns the thread id used. A thread that was created here
// and then failed is still returned so the caller can delete it.
func (r *Runner) Invoke(ctx context.Context, threadID, prompt string, onStatus StatusFunc) (string, []ResponseItem, error) {
	thread := r.svc.NewThread()
	if threadID != "" {
		thread = r.svc.AttachThread(threadID)
	}

	items, err := r.agent.InvokeWithStatus(ctx, thread, prompt, onStatus)
	return thread.ID(), items, err
}

func (r *Runner) OpenFile(ctx context.Context, fileID string) (*FileContent, error) {
	return r.svc.OpenFile(ctx, fileID)
}

func (r *Runner) DeleteThread(ctx context.Context, threadID string) error {
	return r.svc.DeleteThread(ctx, threadID)
}
