package capture

import (
	"bytes"
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Vovarama1992/voice_cascade/internal/audio"
)

const (
	reasonCompleted = "completed"
	reasonTimeout   = "timeout"
	reasonCancelled = "cancelled"
	reasonSpeakFail = "speak_failed"
)

// session binds one utterance to one recorder for a single Capture call.
// Completion, timeout and ctx cancellation all feed finish; only the first
// one stops, releases and settles.
type session struct {
	actx        AudioContext
	rec         Recorder
	cancelSpeak context.CancelFunc
	log         *zap.Logger

	mu     sync.Mutex
	chunks [][]byte

	once   sync.Once
	done   chan struct{}
	result audio.Result
	reason string
}

func newSession(actx AudioContext, rec Recorder, log *zap.Logger) *session {
	return &session{
		actx:        actx,
		rec:         rec,
		cancelSpeak: func() {},
		log:         log,
		done:        make(chan struct{}),
	}
}

func (s *session) append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	s.mu.Lock()
	s.chunks = append(s.chunks, chunk)
	s.mu.Unlock()
}

func (s *session) finish(reason string) {
	s.once.Do(func() {
		if s.rec.State() == RecorderRecording {
			if err := s.rec.Stop(); err != nil {
				s.log.Warn("recorder stop failed", zap.String("reason", reason), zap.Error(err))
			}
		}
		s.cancelSpeak()
		if err := s.actx.Close(); err != nil {
			s.log.Warn("audio context close failed", zap.Error(err))
		}

		s.mu.Lock()
		data := bytes.Join(s.chunks, nil)
		s.chunks = nil
		s.mu.Unlock()

		s.result = audio.FromBytes(s.rec.MIMEType(), data)
		s.reason = reason
		close(s.done)
	})
}

// release is used when the session fails before recording started.
func (s *session) release() {
	s.once.Do(func() {
		if s.rec != nil && s.rec.State() == RecorderRecording {
			_ = s.rec.Stop()
		}
		_ = s.actx.Close()
		close(s.done)
	})
}
