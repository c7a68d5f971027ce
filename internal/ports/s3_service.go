package ports

import (
	"context"

	"github.com/Vovarama1992/voice_cascade/internal/audio"
)

// ArtifactService публикует готовое аудио в бакет.
type ArtifactService interface {
	ObjectKey(id, ext string) string
	SaveAudio(ctx context.Context, id string, res audio.Result) (string, error)
}
