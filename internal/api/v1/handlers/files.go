package handlers

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/api/v1/models"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/metrics"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/services/agents"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/pkg/httpext"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// HandleGetFile streams a file generated by the agent
func HandleGetFile(runner models.Runner, w http.ResponseWriter, r *http.Request) {
	fileID := mux.Vars(r)["id"]
	if fileID == "" {
		httpext.JsonError(w, "File id is required", http.StatusBadRequest)
		return
	}

	file, err := runner.OpenFile(r.Context(), fileID)
	if err != nil {
		if agents.IsNotFound(err) {
			httpext.JsonError(w, "File not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("file_id", fileID).Msg("Failed to open file")
		httpext.JsonError(w, "Failed to fetch file", http.StatusBadGateway)
		return
	}
	defer file.Body.Close()

	contentType := mime.TypeByExtension(filepath.Ext(file.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	if file.Bytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(file.Bytes, 10))
	}
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, file.Body)
	if err != nil {
		log.Error().Err(err).Str("file_id", fileID).Int64("bytes", n).Msg("Failed to stream file")
		return
	}

	metrics.FilesDownloaded.Inc()
	metrics.BytesDownloaded.Add(float64(n))
	log.Info().Str("file_id", fileID).Int64("bytes", n).Msg("Served file")
}
