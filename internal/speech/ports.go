package speech

import (
	"context"
	"fmt"

	"github.com/Vovarama1992/voice_cascade/internal/audio"
)

// Shaping — параметры голоса удалённых провайдеров, все в [0,1].
type Shaping struct {
	Stability       float64
	SimilarityBoost float64
	Style           float64
	SpeakerBoost    bool
}

func (s Shaping) Validate() error {
	for name, v := range map[string]float64{
		"stability":        s.Stability,
		"similarity_boost": s.SimilarityBoost,
		"style":            s.Style,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, v)
		}
	}
	return nil
}

// Request is one synthesis call. VoiceID and Shaping are optional.
type Request struct {
	Text    string
	VoiceID string
	Shaping *Shaping
}

// Reply is what a remote provider answers: `{ "success": bool, "audio": string }`.
// Audio is either a data URL or raw base64.
type Reply struct {
	Success bool   `json:"success"`
	Audio   string `json:"audio"`
	Error   string `json:"error,omitempty"`
}

// Provider is one remote synthesis tier.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, req Request) (*Reply, error)
}

// Capturer is the on-device tier of last resort.
type Capturer interface {
	Capture(ctx context.Context, text string) (audio.Result, error)
}

// Journal stores the outcome of each request.
type Journal interface {
	Record(ctx context.Context, req Request, out Outcome) error
}

// Alerter is told when both remote tiers failed.
type Alerter interface {
	Notify(ctx context.Context, err error, details string) error
}

// ArtifactStore publishes a result and returns its URL.
type ArtifactStore interface {
	SaveAudio(ctx context.Context, id string, res audio.Result) (string, error)
}
