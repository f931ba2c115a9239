package agents

import (
	"context"
	"sync"
)

// Thread is a conversation handle. The remote thread is created on first
// use, so a Thread that was never invoked has nothing to delete.
type Thread struct {
	svc *Service

	mu sync.Mutex
	id string

	// one run at a time per thread
	busy sync.Mutex
}

// NewThread returns a handle whose remote thread does not exist yet.
func (s *Service) NewThread() *Thread {
	return &Thread{svc: s}
}

// AttachThread returns a handle for a thread that already exists.
func (s *Service) AttachThread(id string) *Thread {
	return &Thread{svc: s, id: id}
}

// ID returns the remote thread id, or "" before first use and after Delete.
func (t *Thread) ID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

func (t *Thread) ensure(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.id != "" {
		return t.id, nil
	}

	id, err := t.svc.createThread(ctx)
	if err != nil {
		return "", err
	}
	t.id = id
	return id, nil
}

// Delete removes the remote thread if there is one. Calling it again is a no-op.
func (t *Thread) Delete(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.id == "" {
		return nil
	}
	if err := t.svc.DeleteThread(ctx, t.id); err != nil {
		return err
	}
	t.id = ""
	return nil
}
