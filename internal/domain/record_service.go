package domain

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/Vovarama1992/voice_cascade/internal/ports"
	"github.com/Vovarama1992/voice_cascade/internal/speech"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// DurationFunc меряет длительность закодированного аудио.
type DurationFunc func(ctx context.Context, data []byte) (float64, error)

// RecordService — журнал синтеза: пишет исходы в Postgres и отдаёт историю.
type RecordService struct {
	repo    ports.SynthesisRepo
	measure DurationFunc
}

// NewRecordService; measure may be nil, then durations are not stored.
func NewRecordService(repo ports.SynthesisRepo, measure DurationFunc) *RecordService {
	return &RecordService{repo: repo, measure: measure}
}

// Record implements speech.Journal.
func (s *RecordService) Record(ctx context.Context, req speech.Request, out speech.Outcome) error {
	rec := ports.SynthesisRecord{
		RequestID: out.ID,
		TextChars: utf8.RuneCountInString(req.Text),
		Tier:      out.Tier,
		ElapsedMS: out.Elapsed.Milliseconds(),
	}
	if rec.Tier == "" {
		rec.Tier = "none"
	}
	if req.VoiceID != "" {
		v := req.VoiceID
		rec.VoiceID = &v
	}
	if out.ArtifactURL != "" {
		u := out.ArtifactURL
		rec.ArtifactURL = &u
	}
	for _, f := range out.Failures {
		rec.Failures = append(rec.Failures, f.Tier+": "+f.Err.Error())
	}

	if s.measure != nil && !out.Result.IsZero() {
		if data, err := out.Result.Bytes(); err == nil {
			// ffprobe может отсутствовать, это не ошибка журнала
			if d, err := s.measure(ctx, data); err == nil {
				rec.DurationSec = &d
			}
		}
	}

	_, err := s.repo.Create(ctx, rec)
	return err
}

func (s *RecordService) Recent(ctx context.Context, limit int) ([]ports.SynthesisRecord, error) {
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	return s.repo.ListRecent(ctx, limit)
}

func (s *RecordService) TierStats(ctx context.Context) (map[string]int, error) {
	stats, err := s.repo.CountByTier(ctx)
	if err != nil {
		return nil, fmt.Errorf("tier stats: %w", err)
	}
	return stats, nil
}
