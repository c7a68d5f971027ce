package catalog

import (
	"context"

	"go.uber.org/zap"
)

// builtinVoices — встроенный каталог, когда удалённый недоступен или пуст.
var builtinVoices = []Voice{
	{ID: "21m00Tcm4TlvDq8ikWAM", Name: "Rachel", Category: "premade", Description: "Calm, young adult female voice"},
	{ID: "AZnzlk1XvdvUeBnXmlld", Name: "Domi", Category: "premade", Description: "Strong, confident female voice"},
	{ID: "EXAVITQu4vr4xnSDxMaL", Name: "Bella", Category: "premade", Description: "Soft, warm female voice"},
	{ID: "ErXwobaYiN019PkySvjV", Name: "Antoni", Category: "premade", Description: "Well-rounded male voice"},
}

// Builtin returns a copy of the fallback catalog.
func Builtin() []Voice {
	out := make([]Voice, len(builtinVoices))
	copy(out, builtinVoices)
	return out
}

// Service never fails and never returns an empty list.
type Service struct {
	src Source
	log *zap.Logger
}

func NewService(src Source, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{src: src, log: log.Named("catalog")}
}

func (s *Service) List(ctx context.Context) []Voice {
	if s.src == nil {
		return Builtin()
	}

	voices, err := s.src.FetchVoices(ctx)
	if err != nil {
		s.log.Warn("remote voice list failed, using built-in catalog", zap.Error(err))
		return Builtin()
	}
	if len(voices) == 0 {
		s.log.Info("remote voice list empty, using built-in catalog")
		return Builtin()
	}
	return voices
}
