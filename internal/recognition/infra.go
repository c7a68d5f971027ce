package recognition

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Vovarama1992/voice_cascade/internal/capability"
)

const defaultListenDuration = 5 * time.Second

// MicrophoneHost records the microphone with arecord/sox for a fixed window
// and hands the WAV to a Transcriber.
type MicrophoneHost struct {
	bin      string
	duration time.Duration
	tr       Transcriber
	log      *zap.Logger
}

func NewMicrophoneHost(tr Transcriber, duration time.Duration, log *zap.Logger) *MicrophoneHost {
	bin, _ := capability.LookPath("arecord", "sox")
	if duration <= 0 {
		duration = defaultListenDuration
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MicrophoneHost{bin: bin, duration: duration, tr: tr, log: log.Named("microphone")}
}

func (h *MicrophoneHost) RecognitionSupported() bool {
	return h.bin != "" && h.tr != nil
}

func (h *MicrophoneHost) NewSession(cfg Config) (Session, error) {
	if !h.RecognitionSupported() {
		return nil, capability.ErrUnsupportedEnvironment
	}
	return &micSession{host: h, cfg: cfg}, nil
}

func (h *MicrophoneHost) recordArgs(path string) []string {
	// -d 0 у arecord пишет без ограничения, поэтому минимум секунда
	secs := strconv.Itoa(max(1, int(h.duration.Round(time.Second)/time.Second)))
	if strings.HasSuffix(filepath.Base(h.bin), "sox") {
		return []string{"-q", "-d", "-r", "16000", "-c", "1", "-b", "16", path, "trim", "0", secs}
	}
	return []string{"-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-d", secs, path}
}

type micSession struct {
	host *MicrophoneHost
	cfg  Config

	mu     sync.Mutex
	cancel context.CancelFunc
}

func (s *micSession) Start(h Handlers) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return errors.New("session already started")
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go s.run(ctx, h)
	return nil
}

func (s *micSession) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *micSession) run(ctx context.Context, h Handlers) {
	defer func() {
		if h.OnEnd != nil {
			h.OnEnd()
		}
	}()
	fail := func(code string) {
		if h.OnError != nil {
			h.OnError(code)
		}
	}

	tmp, err := os.CreateTemp("", "voice-cascade-rec-*.wav")
	if err != nil {
		s.host.log.Warn("create temp file failed", zap.Error(err))
		fail(CodeAudioCapture)
		return
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	cmd := exec.CommandContext(ctx, s.host.bin, s.host.recordArgs(path)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			fail(CodeAborted)
			return
		}
		s.host.log.Warn("microphone capture failed",
			zap.Error(err),
			zap.String("output", strings.TrimSpace(string(out))),
		)
		fail(CodeAudioCapture)
		return
	}

	text, err := s.host.tr.Transcribe(ctx, path, s.cfg.Lang)
	if err != nil {
		if ctx.Err() != nil {
			fail(CodeAborted)
			return
		}
		s.host.log.Warn("transcription failed", zap.Error(fmt.Errorf("transcribe: %w", err)))
		fail(CodeNetwork)
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		fail(CodeNoSpeech)
		return
	}
	if h.OnResult != nil {
		h.OnResult(Result{Transcript: text, Final: true})
	}
}

// baseLang: "en-US" → "en".
func baseLang(tag string) string {
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		return strings.ToLower(tag[:i])
	}
	return strings.ToLower(tag)
}
