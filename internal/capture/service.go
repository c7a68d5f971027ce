package capture

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Vovarama1992/voice_cascade/internal/audio"
	"github.com/Vovarama1992/voice_cascade/internal/capability"
)

const (
	// DefaultPerCharTimeout is a rough spoken-duration estimate per character,
	// not a timing contract.
	DefaultPerCharTimeout = 100 * time.Millisecond
	DefaultLanguage       = "en"

	neutralRate  = 1.0
	neutralPitch = 1.0
)

type Config struct {
	PerCharTimeout time.Duration
	Language       string
}

// Pipeline speaks text on the device and records the output route into one
// encoded artifact.
type Pipeline struct {
	host    Host
	perChar time.Duration
	lang    string
	log     *zap.Logger
}

func NewPipeline(host Host, cfg Config, log *zap.Logger) *Pipeline {
	if cfg.PerCharTimeout <= 0 {
		cfg.PerCharTimeout = DefaultPerCharTimeout
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		host:    host,
		perChar: cfg.PerCharTimeout,
		lang:    cfg.Language,
		log:     log.Named("capture"),
	}
}

// Timeout returns the safeguard deadline for text.
func (p *Pipeline) Timeout(text string) time.Duration {
	return time.Duration(utf8.RuneCountInString(text)) * p.perChar
}

// Capture fails only with capability.ErrUnsupportedEnvironment (checked
// before any resource is opened) or when ctx is cancelled. Otherwise it
// settles by the completion event or by the timeout, whichever comes first.
func (p *Pipeline) Capture(ctx context.Context, text string) (audio.Result, error) {
	synth, ok := p.host.Synthesizer()
	if !ok || synth == nil {
		return audio.Result{}, capability.ErrUnsupportedEnvironment
	}

	actx, err := p.host.NewAudioContext()
	if err != nil {
		return audio.Result{}, fmt.Errorf("%w: open audio context: %v", capability.ErrUnsupportedEnvironment, err)
	}

	rec, err := actx.NewRecorder()
	if err != nil {
		_ = actx.Close()
		return audio.Result{}, fmt.Errorf("%w: create recorder: %v", capability.ErrUnsupportedEnvironment, err)
	}

	speakCtx, cancel := context.WithCancel(ctx)
	s := newSession(actx, rec, p.log)
	s.cancelSpeak = cancel
	if err := rec.Start(s.append); err != nil {
		cancel()
		s.release()
		return audio.Result{}, fmt.Errorf("%w: start recorder: %v", capability.ErrUnsupportedEnvironment, err)
	}

	timeout := p.Timeout(text)
	timer := time.AfterFunc(timeout, func() { s.finish(reasonTimeout) })

	go func() {
		select {
		case <-ctx.Done():
			s.finish(reasonCancelled)
		case <-s.done:
		}
	}()

	voice := pickVoice(synth.Voices(), p.lang)
	u := Utterance{
		Text:  text,
		Voice: voice,
		Rate:  neutralRate,
		Pitch: neutralPitch,
		OnEnd: func() { s.finish(reasonCompleted) },
	}
	if err := synth.Speak(speakCtx, u, actx.Destination()); err != nil {
		p.log.Warn("on-device speak failed", zap.Error(err))
		s.finish(reasonSpeakFail)
	}

	<-s.done
	timer.Stop()

	if s.reason == reasonTimeout {
		p.log.Warn("completion event did not fire, recording force-stopped", zap.Duration("timeout", timeout))
	}
	p.log.Debug("capture settled",
		zap.String("reason", s.reason),
		zap.Int("chars", utf8.RuneCountInString(text)),
	)

	if s.reason == reasonCancelled {
		return s.result, ctx.Err()
	}
	return s.result, nil
}
