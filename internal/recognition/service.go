package recognition

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Vovarama1992/voice_cascade/internal/capability"
)

// Error codes reported by sessions.
const (
	CodeNoSpeech     = "no-speech"
	CodeAborted      = "aborted"
	CodeAudioCapture = "audio-capture"
	CodeNetwork      = "network"
)

// RecognitionError carries the code the session reported.
type RecognitionError struct {
	Code string
}

func (e *RecognitionError) Error() string {
	return "speech recognition error: " + e.Code
}

// Bridge wraps a single-shot recognition session as a blocking call.
type Bridge struct {
	host Host
	cfg  Config
	log  *zap.Logger
}

func NewBridge(host Host, log *zap.Logger) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{host: host, cfg: DefaultConfig, log: log.Named("recognition")}
}

type outcome struct {
	text string
	err  error
}

// Recognize returns the first final transcript. No retry.
func (b *Bridge) Recognize(ctx context.Context) (string, error) {
	if b.host == nil || !b.host.RecognitionSupported() {
		return "", capability.ErrUnsupportedEnvironment
	}

	sess, err := b.host.NewSession(b.cfg)
	if err != nil {
		return "", fmt.Errorf("create recognition session: %w", err)
	}

	done := make(chan outcome, 1)
	var once sync.Once
	settle := func(o outcome) {
		once.Do(func() { done <- o })
	}

	err = sess.Start(Handlers{
		OnResult: func(r Result) {
			if r.Final {
				settle(outcome{text: r.Transcript})
			}
		},
		OnError: func(code string) {
			settle(outcome{err: &RecognitionError{Code: code}})
		},
		OnEnd: func() {
			// закончилось без финального результата
			settle(outcome{err: &RecognitionError{Code: CodeNoSpeech}})
		},
	})
	if err != nil {
		return "", fmt.Errorf("start recognition session: %w", err)
	}

	select {
	case o := <-done:
		if o.err != nil {
			b.log.Warn("recognition failed", zap.Error(o.err))
		}
		return o.text, o.err
	case <-ctx.Done():
		sess.Abort()
		return "", ctx.Err()
	}
}
