package models

import (
	"context"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/services/agents"
)

// Runner is what the v1 handlers need from the agent layer.
// *agents.Runner satisfies it.
type Runner interface {
	Invoke(ctx context.Context, threadID, prompt string, onStatus agents.StatusFunc) (string, []agents.ResponseItem, error)
	OpenFile(ctx context.Context, fileID string) (*agents.FileContent, error)
	DeleteThread(ctx context.Context, threadID string) error
}

var _ Runner = (*agents.Runner)(nil)

// RunRequest starts a run. Without a thread id a new thread is created.
type RunRequest struct {
	Prompt   string `json:"prompt" validate:"required,max=32768"`
	ThreadID string `json:"thread_id,omitempty" validate:"omitempty,max=128"`
}

// Message is one response item flattened for clients.
type Message struct {
	ID      string   `json:"id"`
	Role    string   `json:"role"`
	Text    string   `json:"text"`
	FileIDs []string `json:"file_ids,omitempty"`
}

type RunResponse struct {
	ThreadID string    `json:"thread_id"`
	Messages []Message `json:"messages"`
	FileIDs  []string  `json:"file_ids"`
}

func NewRunResponse(threadID string, items []agents.ResponseItem) RunResponse {
	resp := RunResponse{
		ThreadID: threadID,
		Messages: make([]Message, 0, len(items)),
		FileIDs:  agents.ExtractFileIDs(items),
	}
	if resp.FileIDs == nil {
		resp.FileIDs = []string{}
	}

	for _, item := range items {
		resp.Messages = append(resp.Messages, Message{
			ID:      item.MessageID,
			Role:    item.Role,
			Text:    item.Text(),
			FileIDs: agents.ExtractFileIDs([]agents.ResponseItem{item}),
		})
	}
	return resp
}
