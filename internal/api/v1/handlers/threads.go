package handlers

import (
	"net/http"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/api/v1/models"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/pkg/httpext"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// HandleDeleteThread deletes a thread. Deleting a missing thread succeeds.
func HandleDeleteThread(runner models.Runner, w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["id"]

	if err := runner.DeleteThread(r.Context(), threadID); err != nil {
		log.Error().Err(err).Str("thread_id", threadID).Msg("Failed to delete thread")
		httpext.JsonError(w, "Failed to delete thread", http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
