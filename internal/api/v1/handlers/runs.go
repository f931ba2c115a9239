package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/api/v1/models"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/services/agents"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/pkg/httpext"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// use a single instance of Validate, it caches struct info
var validate = validator.New(validator.WithRequiredStructEnabled())

// HandleCreateRun posts a prompt to a thread and returns what the agent produced
func HandleCreateRun(runner models.Runner, w http.ResponseWriter, r *http.Request) {
	var req models.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Client sent malformed JSON request")
		httpext.JsonError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(req); err != nil {
		log.Warn().Err(err).Msg("Request validation failed")
		httpext.JsonError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	log.Info().
		Str("thread_id", req.ThreadID).
		Int("prompt_length", len(req.Prompt)).
		Str("client_ip", r.RemoteAddr).
		Msg("Received run request")

	threadID, items, err := runner.Invoke(r.Context(), req.ThreadID, req.Prompt, nil)
	if err != nil {
		log.Error().Err(err).Str("thread_id", threadID).Msg("Failed to run agent")
		code, message := statusForError(err)
		httpext.JsonErrorWithDetails(w, code, httpext.ErrorResponse{
			Error:            message,
			ErrorDescription: describeRunError(err, threadID),
		})
		return
	}

	httpext.JsonResponse(w, http.StatusOK, models.NewRunResponse(threadID, items))
}

// statusForError maps agent errors onto HTTP responses.
func statusForError(err error) (int, string) {
	var runErr *agents.RunError
	switch {
	case errors.Is(err, agents.ErrEmptyPrompt):
		return http.StatusBadRequest, "Prompt is empty"
	case agents.IsNotFound(err):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Run timed out"
	case errors.Is(err, agents.ErrRequiresAction):
		return http.StatusBadGateway, "Run requires action"
	case errors.As(err, &runErr):
		return http.StatusBadGateway, "Run " + string(runErr.Status)
	default:
		return http.StatusInternalServerError, "Failed to run agent"
	}
}

func describeRunError(err error, threadID string) string {
	var runErr *agents.RunError
	if errors.As(err, &runErr) && runErr.Message != "" {
		return runErr.Message
	}
	if threadID != "" {
		return "thread " + threadID
	}
	return ""
}
