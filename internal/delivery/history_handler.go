package delivery

import (
	"net/http"
	"strconv"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/voice_cascade/internal/ports"
)

type HistoryHandler struct {
	history ports.HistoryService
	log     *logger.ZapLogger
}

func NewHistoryHandler(history ports.HistoryService, log *logger.ZapLogger) *HistoryHandler {
	return &HistoryHandler{history: history, log: log}
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	records, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "error", Message: "db error", Service: "history", Error: err})
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *HistoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.history.TierStats(r.Context())
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "error", Message: "db error", Service: "history", Error: err})
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tiers": stats})
}
