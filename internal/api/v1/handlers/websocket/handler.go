package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/api/v1/models"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/connections"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

const (
	EventRunStatus    = "run.status"
	EventRunCompleted = "run.completed"
	EventRunFailed    = "run.failed"

	deleteTimeout = 10 * time.Second
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// bearer auth runs before the upgrade, so any origin may connect
			return true
		},
	}

	validate = validator.New(validator.WithRequiredStructEnabled())
)

// PromptFrame is what clients send. The thread is kept for the life of the
// connection unless a frame names another one.
type PromptFrame struct {
	Prompt   string `json:"prompt" validate:"required,max=32768"`
	ThreadID string `json:"thread_id,omitempty" validate:"omitempty,max=128"`
}

type Event struct {
	Type   string              `json:"type"`
	RunID  string              `json:"run_id,omitempty"`
	Status string              `json:"status,omitempty"`
	Result *models.RunResponse `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// HandleRunWebSocket runs prompts sent over the socket and streams run
// status changes back. A thread created on this connection is deleted
// when the connection ends.
func HandleRunWebSocket(runner models.Runner, manager *connections.Manager, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	manager.AddConnection(conn, cancel)
	defer manager.RemoveConnection(conn)

	done := make(chan struct{})
	defer close(done)
	go manager.KeepAlive(conn, done)

	var ownedThread, threadID string
	defer func() {
		if ownedThread == "" {
			return
		}
		delCtx, delCancel := context.WithTimeout(context.Background(), deleteTimeout)
		defer delCancel()
		if err := runner.DeleteThread(delCtx, ownedThread); err != nil {
			log.Warn().Err(err).Str("thread_id", ownedThread).Msg("Failed to delete connection thread")
		}
	}()

	send := func(ev Event) error {
		_ = conn.SetWriteDeadline(time.Now().Add(manager.GetTimeouts().WriteWait))
		return conn.WriteJSON(ev)
	}

	for {
		if err := manager.ExpectRead(conn); err != nil {
			return
		}

		var frame PromptFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected WebSocket closure")
			}
			return
		}

		if err := validate.Struct(frame); err != nil {
			if send(Event{Type: EventRunFailed, Error: "Invalid request: " + err.Error()}) != nil {
				return
			}
			continue
		}
		if frame.ThreadID != "" {
			threadID = frame.ThreadID
		}

		onStatus := func(runID string, status openai.RunStatus) {
			if err := send(Event{Type: EventRunStatus, RunID: runID, Status: string(status)}); err != nil {
				log.Debug().Err(err).Msg("Failed to send run status")
			}
		}

		usedThread, items, err := runner.Invoke(ctx, threadID, frame.Prompt, onStatus)
		if threadID == "" && usedThread != "" {
			ownedThread = usedThread
		}
		threadID = usedThread

		if err != nil {
			log.Error().Err(err).Str("thread_id", threadID).Msg("WebSocket run failed")
			if send(Event{Type: EventRunFailed, Error: err.Error()}) != nil {
				return
			}
			continue
		}

		result := models.NewRunResponse(threadID, items)
		if err := send(Event{Type: EventRunCompleted, Result: &result}); err != nil {
			return
		}
	}
}
