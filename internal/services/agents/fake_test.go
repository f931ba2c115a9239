package agents

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/services/ledger"
	"github.com/sashabaranov/go-openai"
)

// fakeAPI is an in-memory agent service.
type fakeAPI struct {
	mu sync.Mutex

	nextID int

	assistants map[string]openai.AssistantRequest
	threads    map[string]bool
	posted     map[string][]string

	// statuses returned by successive RetrieveRun calls; the last one repeats
	statuses  []openai.RunStatus
	polls     int
	lastError *openai.RunLastError
	cancelled []string

	// messages returned for a run, split into pages of pageSize
	runMessages []openai.Message
	pageSize    int

	files    map[string]openai.File
	contents map[string]string

	deleteAssistantCalls int
	deleteThreadCalls    int
	failDeletes          error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		assistants: make(map[string]openai.AssistantRequest),
		threads:    make(map[string]bool),
		posted:     make(map[string][]string),
		statuses:   []openai.RunStatus{openai.RunStatusCompleted},
		files:      make(map[string]openai.File),
		contents:   make(map[string]string),
	}
}

func newTestService(api API) (*Service, *ledger.Service) {
	return newTestServiceOn(api, ledger.NewMemoryStore())
}

// newTestServiceOn builds a service with its own ledger session over store.
func newTestServiceOn(api API, store ledger.Store) (*Service, *ledger.Service) {
	l := ledger.NewServiceWithStore(store)
	return NewService(api, l, Options{
		Model:        "gpt-4o",
		PollInterval: time.Millisecond,
		RunTimeout:   time.Second,
	}), l
}

func (f *fakeAPI) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s_%d", prefix, f.nextID)
}

func notFound() error {
	return &openai.APIError{HTTPStatusCode: http.StatusNotFound, Message: "not found"}
}

func (f *fakeAPI) addFile(id, name, content string, reported int) {
	f.files[id] = openai.File{ID: id, FileName: name, Bytes: reported}
	f.contents[id] = content
}

func (f *fakeAPI) CreateAssistant(_ context.Context, req openai.AssistantRequest) (openai.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id("asst")
	f.assistants[id] = req
	return openai.Assistant{ID: id, Model: req.Model, Name: req.Name, CreatedAt: 1700000000}, nil
}

func (f *fakeAPI) DeleteAssistant(_ context.Context, id string) (openai.AssistantDeleteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteAssistantCalls++
	if f.failDeletes != nil {
		return openai.AssistantDeleteResponse{}, f.failDeletes
	}
	if _, ok := f.assistants[id]; !ok {
		return openai.AssistantDeleteResponse{}, notFound()
	}
	delete(f.assistants, id)
	return openai.AssistantDeleteResponse{ID: id, Deleted: true}, nil
}

func (f *fakeAPI) CreateThread(context.Context, openai.ThreadRequest) (openai.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id("thread")
	f.threads[id] = true
	return openai.Thread{ID: id}, nil
}

func (f *fakeAPI) DeleteThread(_ context.Context, id string) (openai.ThreadDeleteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteThreadCalls++
	if f.failDeletes != nil {
		return openai.ThreadDeleteResponse{}, f.failDeletes
	}
	if !f.threads[id] {
		return openai.ThreadDeleteResponse{}, notFound()
	}
	delete(f.threads, id)
	return openai.ThreadDeleteResponse{ID: id, Deleted: true}, nil
}

func (f *fakeAPI) CreateMessage(_ context.Context, threadID string, req openai.MessageRequest) (openai.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.threads[threadID] {
		return openai.Message{}, notFound()
	}
	f.posted[threadID] = append(f.posted[threadID], req.Content)
	return openai.Message{ID: f.id("msg"), ThreadID: threadID, Role: req.Role}, nil
}

func (f *fakeAPI) ListMessage(_ context.Context, threadID string, limit *int, _ *string, after *string, _ *string, _ *string) (openai.MessagesList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	size := f.pageSize
	if size == 0 && limit != nil {
		size = *limit
	}

	start := 0
	if after != nil {
		for i, m := range f.runMessages {
			if m.ID == *after {
				start = i + 1
			}
		}
	}
	end := start + size
	if end > len(f.runMessages) {
		end = len(f.runMessages)
	}

	page := openai.MessagesList{Messages: f.runMessages[start:end], HasMore: end < len(f.runMessages)}
	if end > start {
		last := f.runMessages[end-1].ID
		page.LastID = &last
	}
	return page, nil
}

func (f *fakeAPI) CreateRun(_ context.Context, threadID string, req openai.RunRequest) (openai.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return openai.Run{ID: f.id("run"), ThreadID: threadID, AssistantID: req.AssistantID, Status: openai.RunStatusQueued}, nil
}

func (f *fakeAPI) RetrieveRun(_ context.Context, threadID, runID string) (openai.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.polls
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	f.polls++
	return openai.Run{ID: runID, ThreadID: threadID, Status: f.statuses[i], LastError: f.lastError}, nil
}

func (f *fakeAPI) CancelRun(_ context.Context, threadID, runID string) (openai.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, runID)
	return openai.Run{ID: runID, ThreadID: threadID, Status: openai.RunStatusCancelling}, nil
}

func (f *fakeAPI) GetFile(_ context.Context, id string) (openai.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[id]
	if !ok {
		return openai.File{}, notFound()
	}
	return file, nil
}

func (f *fakeAPI) GetFileContent(_ context.Context, id string) (openai.RawResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.contents[id]
	if !ok {
		return openai.RawResponse{}, notFound()
	}
	return openai.RawResponse{ReadCloser: io.NopCloser(strings.NewReader(content))}, nil
}

func textMessage(id, text string, annotations ...any) openai.Message {
	return openai.Message{
		ID:   id,
		Role: "assistant",
		Content: []openai.MessageContent{
			{Type: "text", Text: &openai.MessageText{Value: text, Annotations: annotations}},
		},
	}
}

func imageMessage(id, fileID string) openai.Message {
	return openai.Message{
		ID:   id,
		Role: "assistant",
		Content: []openai.MessageContent{
			{Type: "image_file", ImageFile: &openai.ImageFile{FileID: fileID}},
		},
	}
}

func filePathAnnotation(fileID string) map[string]any {
	return map[string]any{
		"type":      "file_path",
		"text":      "sandbox:/mnt/data/out",
		"file_path": map[string]any{"file_id": fileID},
	}
}
