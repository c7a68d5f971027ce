package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Vovarama1992/voice_cascade/internal/audio"
	"github.com/Vovarama1992/voice_cascade/internal/capability"
)

const (
	TierPrimary   = "primary"
	TierSecondary = "secondary"
	TierCapture   = "capture"

	sideEffectTimeout = 10 * time.Second
)

type TierFailure struct {
	Tier     string
	Provider string
	Err      error
}

// Outcome is a result plus how it was obtained. Callers that only need
// audio use Service.Synthesize.
type Outcome struct {
	ID          string
	Result      audio.Result
	Tier        string
	Failures    []TierFailure
	ArtifactURL string
	Elapsed     time.Duration
}

// Service — каскад синтеза: primary → secondary → запись на устройстве.
// Tiers run one after another, never concurrently.
type Service struct {
	primary   Provider
	secondary Provider
	capturer  Capturer

	journal Journal
	alerter Alerter
	store   ArtifactStore
	pending sync.WaitGroup

	log *zap.Logger
}

type Option func(*Service)

func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

func WithAlerter(a Alerter) Option {
	return func(s *Service) { s.alerter = a }
}

func WithArtifactStore(st ArtifactStore) Option {
	return func(s *Service) { s.store = st }
}

// NewService; secondary is nil when the backend is not configured.
func NewService(primary, secondary Provider, capturer Capturer, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		primary:   primary,
		secondary: secondary,
		capturer:  capturer,
		log:       log.Named("speech"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize always returns playable audio unless the on-device tier
// reports capability.ErrUnsupportedEnvironment (or ctx is cancelled while it runs).
func (s *Service) Synthesize(ctx context.Context, req Request) (audio.Result, error) {
	out, err := s.SynthesizeDetailed(ctx, req)
	return out.Result, err
}

func (s *Service) SynthesizeDetailed(ctx context.Context, req Request) (Outcome, error) {
	start := time.Now()
	out := Outcome{ID: uuid.NewString()}

	remote := []struct {
		tier string
		p    Provider
	}{
		{TierPrimary, s.primary},
		{TierSecondary, s.secondary},
	}

	for _, t := range remote {
		if t.p == nil {
			continue
		}
		res, err := s.tryProvider(ctx, t.p, req)
		if err == nil {
			out.Result = res
			out.Tier = t.tier
			break
		}
		s.log.Warn("synthesis tier failed",
			zap.String("tier", t.tier),
			zap.String("provider", t.p.Name()),
			zap.Error(err),
		)
		out.Failures = append(out.Failures, TierFailure{Tier: t.tier, Provider: t.p.Name(), Err: err})
	}

	var err error
	if out.Tier == "" {
		// голос и параметры тут не нужны, только текст
		var res audio.Result
		res, err = s.tryCapture(ctx, req.Text)
		if err != nil {
			s.log.Error("on-device capture failed", zap.Error(err))
			out.Failures = append(out.Failures, TierFailure{Tier: TierCapture, Provider: TierCapture, Err: err})
		} else {
			out.Result = res
			out.Tier = TierCapture
		}
	}

	out.Elapsed = time.Since(start)
	s.afterSynthesis(ctx, req, &out)

	return out, err
}

func (s *Service) tryProvider(ctx context.Context, p Provider, req Request) (res audio.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrProviderUnavailable, r)
		}
	}()

	reply, err := p.Synthesize(ctx, req)
	if err != nil {
		return audio.Result{}, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if reply == nil || !reply.Success || strings.TrimSpace(reply.Audio) == "" {
		if reply != nil && reply.Error != "" {
			return audio.Result{}, fmt.Errorf("%w: %s", ErrProviderEmptyResponse, reply.Error)
		}
		return audio.Result{}, ErrProviderEmptyResponse
	}

	res, err = audio.FromRemote(reply.Audio, audio.MIMEMPEG)
	if err != nil {
		return audio.Result{}, fmt.Errorf("%w: %w", ErrProviderEmptyResponse, err)
	}
	return res, nil
}

func (s *Service) tryCapture(ctx context.Context, text string) (res audio.Result, err error) {
	if s.capturer == nil {
		return audio.Result{}, capability.ErrUnsupportedEnvironment
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: capture panic: %v", capability.ErrUnsupportedEnvironment, r)
		}
	}()
	return s.capturer.Capture(ctx, text)
}

// afterSynthesis: загрузка в S3 до ответа (URL уходит клиенту), алерт и журнал
// в фоне. Ошибки только логируются.
func (s *Service) afterSynthesis(ctx context.Context, req Request, out *Outcome) {
	if s.store == nil && s.alerter == nil && s.journal == nil {
		return
	}

	ctx = context.WithoutCancel(ctx)

	if s.store != nil && !out.Result.IsZero() {
		upCtx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
		url, err := s.store.SaveAudio(upCtx, out.ID, out.Result)
		cancel()
		if err != nil {
			s.log.Warn("artifact upload failed", zap.String("id", out.ID), zap.Error(err))
		} else {
			out.ArtifactURL = url
		}
	}

	if s.alerter == nil && s.journal == nil {
		return
	}

	o := *out
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		bgCtx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
		defer cancel()
		s.report(bgCtx, req, o)
	}()
}

func (s *Service) report(ctx context.Context, req Request, out Outcome) {
	if s.alerter != nil && out.Tier != TierPrimary && out.Tier != TierSecondary && len(out.Failures) > 0 {
		details := fmt.Sprintf("request=%s chars=%d served_by=%s", out.ID, utf8.RuneCountInString(req.Text), tierOrNone(out.Tier))
		if err := s.alerter.Notify(ctx, failuresError(out.Failures), details); err != nil {
			s.log.Warn("degradation alert failed", zap.Error(err))
		}
	}

	if s.journal != nil {
		if err := s.journal.Record(ctx, req, out); err != nil {
			s.log.Warn("journal write failed", zap.String("id", out.ID), zap.Error(err))
		}
	}
}

// Wait blocks until background alerts and journal writes are done.
func (s *Service) Wait() {
	s.pending.Wait()
}

func failuresError(fs []TierFailure) error {
	errs := make([]error, 0, len(fs))
	for _, f := range fs {
		errs = append(errs, fmt.Errorf("%s (%s): %w", f.Tier, f.Provider, f.Err))
	}
	return errors.Join(errs...)
}

func tierOrNone(tier string) string {
	if tier == "" {
		return "none"
	}
	return tier
}
