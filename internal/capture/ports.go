package capture

import (
	"context"
	"io"
)

// SystemVoice — голос движка синтеза на устройстве.
type SystemVoice struct {
	ID     string
	Name   string
	Lang   string
	Female bool
}

// Utterance is one on-device speech request. OnEnd fires when playback
// finishes naturally; some engines never fire it.
type Utterance struct {
	Text  string
	Voice *SystemVoice
	Rate  float64
	Pitch float64
	OnEnd func()
}

// Synthesizer is the on-device speech engine.
type Synthesizer interface {
	Voices() []SystemVoice
	// Speak starts playback into route and returns immediately.
	// Cancelling ctx stops playback.
	Speak(ctx context.Context, u Utterance, route io.Writer) error
}

type RecorderState int

const (
	RecorderInactive RecorderState = iota
	RecorderRecording
	RecorderStopped
)

// Recorder records the context's output route. onData receives fragments
// in order; Stop returns only after the last fragment was delivered.
type Recorder interface {
	Start(onData func([]byte)) error
	Stop() error
	State() RecorderState
	MIMEType() string
}

// AudioContext owns the virtual output destination both the synthesizer
// and the recorder attach to.
type AudioContext interface {
	Destination() io.Writer
	NewRecorder() (Recorder, error)
	Close() error
}

// Host provides on-device audio facilities.
type Host interface {
	// Synthesizer reports false when the host has no on-device synthesis.
	Synthesizer() (Synthesizer, bool)
	NewAudioContext() (AudioContext, error)
}
