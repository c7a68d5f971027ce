package capture

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Vovarama1992/voice_cascade/internal/audio"
	"github.com/Vovarama1992/voice_cascade/internal/capability"
)

const (
	espeakDefaultWPM   = 175
	espeakDefaultPitch = 50
	espeakMaxPitch     = 99
	espeakFemaleSuffix = "+f3"

	recorderChunkSize = 4096
)

// CommandHost — синтез через espeak-ng/espeak. Движок пишет WAV в stdout,
// stdout подключён к виртуальному выходу (pipe), рекордер читает pipe.
// Завершение процесса = событие окончания речи.
type CommandHost struct {
	bin string
	log *zap.Logger

	voicesOnce sync.Once
	voices     []SystemVoice
}

func NewCommandHost(log *zap.Logger) *CommandHost {
	bin, _ := capability.LookPath("espeak-ng", "espeak")
	if log == nil {
		log = zap.NewNop()
	}
	return &CommandHost{bin: bin, log: log.Named("espeak")}
}

// SynthesisAvailable для capability.Detector.
func (h *CommandHost) SynthesisAvailable() bool {
	_, ok := h.Synthesizer()
	return ok
}

func (h *CommandHost) Synthesizer() (Synthesizer, bool) {
	if h.bin == "" {
		return nil, false
	}
	return &espeakSynth{host: h}, true
}

func (h *CommandHost) NewAudioContext() (AudioContext, error) {
	pr, pw := io.Pipe()
	return &pipeContext{pr: pr, pw: pw}, nil
}

func (h *CommandHost) listVoices() []SystemVoice {
	h.voicesOnce.Do(func() {
		out, err := exec.Command(h.bin, "--voices").Output()
		if err != nil {
			h.log.Warn("list voices failed", zap.Error(err))
			return
		}
		h.voices = parseVoices(out)
	})
	return h.voices
}

// parseVoices разбирает таблицу `espeak-ng --voices`:
// Pty Language Age/Gender VoiceName File Other Languages
func parseVoices(out []byte) []SystemVoice {
	var voices []SystemVoice
	sc := bufio.NewScanner(bytes.NewReader(out))
	header := true
	for sc.Scan() {
		if header {
			header = false
			continue
		}
		f := strings.Fields(sc.Text())
		if len(f) < 4 {
			continue
		}
		lang, gender, name := f[1], f[2], strings.ReplaceAll(f[3], "_", " ")
		female := strings.HasSuffix(gender, "/F")

		voices = append(voices, SystemVoice{ID: lang, Name: name, Lang: lang, Female: female})
		if !female {
			voices = append(voices, SystemVoice{
				ID:     lang + espeakFemaleSuffix,
				Name:   name + " Female",
				Lang:   lang,
				Female: true,
			})
		}
	}
	return voices
}

type espeakSynth struct {
	host *CommandHost
}

func (s *espeakSynth) Voices() []SystemVoice {
	return s.host.listVoices()
}

func (s *espeakSynth) Speak(ctx context.Context, u Utterance, route io.Writer) error {
	args := []string{
		"--stdout",
		"-s", strconv.Itoa(int(espeakDefaultWPM * u.Rate)),
		"-p", strconv.Itoa(clampPitch(int(espeakDefaultPitch * u.Pitch))),
	}
	if u.Voice != nil && u.Voice.ID != "" {
		args = append(args, "-v", u.Voice.ID)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.host.bin, args...)
	cmd.Stdin = strings.NewReader(u.Text)
	cmd.Stdout = route
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.host.bin, err)
	}

	go func() {
		err := cmd.Wait()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			// onend не придёт, сработает таймаут
			s.host.log.Warn("speech process failed",
				zap.Error(err),
				zap.String("stderr", strings.TrimSpace(stderr.String())),
			)
			return
		}
		if u.OnEnd != nil {
			u.OnEnd()
		}
	}()
	return nil
}

func clampPitch(p int) int {
	if p < 0 {
		return 0
	}
	if p > espeakMaxPitch {
		return espeakMaxPitch
	}
	return p
}

// pipeContext — виртуальный выход: синтезатор пишет в pw, рекордер читает pr.
type pipeContext struct {
	pr *io.PipeReader
	pw *io.PipeWriter

	mu  sync.Mutex
	rec *pipeRecorder

	closeOnce sync.Once
}

func (c *pipeContext) Destination() io.Writer {
	return c.pw
}

func (c *pipeContext) NewRecorder() (Recorder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rec != nil {
		return nil, errors.New("recorder already attached")
	}
	c.rec = &pipeRecorder{src: c.pr, sink: c.pw, done: make(chan struct{})}
	return c.rec, nil
}

func (c *pipeContext) Close() error {
	c.closeOnce.Do(func() {
		_ = c.pw.Close()
		_ = c.pr.Close()
	})
	return nil
}

type pipeRecorder struct {
	src  *io.PipeReader
	sink *io.PipeWriter

	mu    sync.Mutex
	state RecorderState
	done  chan struct{}
}

func (r *pipeRecorder) Start(onData func([]byte)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RecorderInactive {
		return errors.New("recorder already started")
	}
	r.state = RecorderRecording

	go func() {
		defer close(r.done)
		buf := make([]byte, recorderChunkSize)
		for {
			n, err := r.src.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				onData(chunk)
			}
			if err != nil {
				return
			}
		}
	}()
	return nil
}

// Stop закрывает запись в pipe и ждёт, пока последний фрагмент дойдёт до onData.
func (r *pipeRecorder) Stop() error {
	r.mu.Lock()
	if r.state != RecorderRecording {
		r.mu.Unlock()
		return nil
	}
	r.state = RecorderStopped
	r.mu.Unlock()

	_ = r.sink.Close()
	<-r.done
	return nil
}

func (r *pipeRecorder) State() RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *pipeRecorder) MIMEType() string {
	return audio.MIMEWAV
}
