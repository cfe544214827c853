package handler

import (
	"encoding/json"
	"net/http"

	"github.com/user/bfs-crawler/internal/delivery/http/response"
	"github.com/user/bfs-crawler/internal/entity"
	"go.uber.org/zap"
)

// StatsProvider exposes the live status of a crawl run.
type StatsProvider interface {
	Status() entity.RunStatus
}

type Handler struct {
	stats  StatsProvider
	logger *zap.Logger
}

func NewHandler(stats StatsProvider, logger *zap.Logger) *Handler {
	return &Handler{
		stats:  stats,
		logger: logger,
	}
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		h.writeJSONError(w, "No crawl run attached", http.StatusServiceUnavailable)
		return
	}

	status := h.stats.Status()
	resp := response.RunStatusResponse{
		RunID:   status.RunID,
		State:   status.State,
		Queued:  status.Stats.Queued,
		Crawled: status.Stats.Crawled,
		Failed:  status.Stats.Failed,
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
