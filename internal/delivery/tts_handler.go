package delivery

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Vovarama1992/go-utils/logger"
	json "github.com/goccy/go-json"

	"github.com/Vovarama1992/voice_cascade/internal/capability"
	"github.com/Vovarama1992/voice_cascade/internal/speech"
)

const maxTTSBody = 1 << 20

// дефолты ElevenLabs, если клиент прислал только часть параметров
const (
	defaultStability       = 0.5
	defaultSimilarityBoost = 0.75
)

type Synthesizer interface {
	SynthesizeDetailed(ctx context.Context, req speech.Request) (speech.Outcome, error)
}

type TTSHandler struct {
	svc Synthesizer
	log *logger.ZapLogger
}

func NewTTSHandler(svc Synthesizer, log *logger.ZapLogger) *TTSHandler {
	return &TTSHandler{svc: svc, log: log}
}

type ttsRequest struct {
	Text            string   `json:"text"`
	VoiceID         string   `json:"voice_id"`
	Stability       *float64 `json:"stability"`
	SimilarityBoost *float64 `json:"similarity_boost"`
	Style           *float64 `json:"style"`
	UseSpeakerBoost *bool    `json:"use_speaker_boost"`
}

type ttsResponse struct {
	Success bool   `json:"success"`
	Audio   string `json:"audio"`
	Tier    string `json:"tier"`
	URL     string `json:"url,omitempty"`
}

func (r ttsRequest) shaping() *speech.Shaping {
	if r.Stability == nil && r.SimilarityBoost == nil && r.Style == nil && r.UseSpeakerBoost == nil {
		return nil
	}
	sh := &speech.Shaping{
		Stability:       defaultStability,
		SimilarityBoost: defaultSimilarityBoost,
		SpeakerBoost:    true,
	}
	if r.Stability != nil {
		sh.Stability = *r.Stability
	}
	if r.SimilarityBoost != nil {
		sh.SimilarityBoost = *r.SimilarityBoost
	}
	if r.Style != nil {
		sh.Style = *r.Style
	}
	if r.UseSpeakerBoost != nil {
		sh.SpeakerBoost = *r.UseSpeakerBoost
	}
	return sh
}

func (h *TTSHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTTSBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	sh := req.shaping()
	if sh != nil {
		if err := sh.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	out, err := h.svc.SynthesizeDetailed(r.Context(), speech.Request{
		Text:    req.Text,
		VoiceID: req.VoiceID,
		Shaping: sh,
	})
	switch {
	case errors.Is(err, capability.ErrUnsupportedEnvironment):
		h.log.Log(logger.LogEntry{Level: "error", Message: "all synthesis tiers failed", Service: "tts", Error: err})
		writeError(w, http.StatusServiceUnavailable, "speech synthesis is not available")
		return
	case err != nil:
		h.log.Log(logger.LogEntry{Level: "error", Message: "synthesis failed", Service: "tts", Error: err})
		writeError(w, http.StatusInternalServerError, "synthesis failed")
		return
	}

	writeJSON(w, http.StatusOK, ttsResponse{
		Success: true,
		Audio:   out.Result.String(),
		Tier:    out.Tier,
		URL:     out.ArtifactURL,
	})
}
