package delivery

import (
	"context"
	"net/http"

	"github.com/Vovarama1992/voice_cascade/internal/capability"
	"github.com/Vovarama1992/voice_cascade/internal/catalog"
)

type VoiceLister interface {
	List(ctx context.Context) []catalog.Voice
}

type CapabilityReporter interface {
	Capabilities() capability.Capabilities
}

type VoiceHandler struct {
	voices VoiceLister
	caps   CapabilityReporter
}

func NewVoiceHandler(voices VoiceLister, caps CapabilityReporter) *VoiceHandler {
	return &VoiceHandler{voices: voices, caps: caps}
}

// ListVoices never fails: the catalog falls back to built-in voices.
func (h *VoiceHandler) ListVoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"voices": h.voices.List(r.Context())})
}

func (h *VoiceHandler) Capabilities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.caps.Capabilities())
}
