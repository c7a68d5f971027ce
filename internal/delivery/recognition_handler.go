package delivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/voice_cascade/internal/capability"
	"github.com/Vovarama1992/voice_cascade/internal/recognition"
)

type Recognizer interface {
	Recognize(ctx context.Context) (string, error)
}

type RecognitionHandler struct {
	rec Recognizer
	log *logger.ZapLogger
}

func NewRecognitionHandler(rec Recognizer, log *logger.ZapLogger) *RecognitionHandler {
	return &RecognitionHandler{rec: rec, log: log}
}

func (h *RecognitionHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	text, err := h.rec.Recognize(r.Context())

	var recErr *recognition.RecognitionError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"text": text})
	case errors.Is(err, capability.ErrUnsupportedEnvironment):
		writeError(w, http.StatusServiceUnavailable, "speech recognition is not available")
	case errors.As(err, &recErr):
		h.log.Log(logger.LogEntry{Level: "warn", Message: "recognition error: " + recErr.Code, Service: "recognition", Error: err})
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"success": false,
			"error":   recErr.Error(),
			"code":    recErr.Code,
		})
	default:
		h.log.Log(logger.LogEntry{Level: "error", Message: "recognition failed", Service: "recognition", Error: err})
		writeError(w, http.StatusInternalServerError, "recognition failed")
	}
}
