package ports

import (
	"context"
	"time"
)

// DTO одной записи журнала синтеза
type SynthesisRecord struct {
	ID          int64     `json:"id"`
	RequestID   string    `json:"request_id"`
	TextChars   int       `json:"text_chars"`
	VoiceID     *string   `json:"voice_id,omitempty"`
	Tier        string    `json:"tier"`
	Failures    []string  `json:"failures"`
	ArtifactURL *string   `json:"artifact_url,omitempty"`
	DurationSec *float64  `json:"duration_sec,omitempty"`
	ElapsedMS   int64     `json:"elapsed_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// Репозиторий Postgres
type SynthesisRepo interface {
	Create(ctx context.Context, rec SynthesisRecord) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]SynthesisRecord, error)
	CountByTier(ctx context.Context) (map[string]int, error)
}
