package recognition

import "context"

// Config of one recognition session.
type Config struct {
	Lang            string
	InterimResults  bool
	MaxAlternatives int
}

// DefaultConfig is single-shot: final results only, one alternative.
var DefaultConfig = Config{
	Lang:            "en-US",
	InterimResults:  false,
	MaxAlternatives: 1,
}

type Result struct {
	Transcript string
	Final      bool
}

// Handlers are the session events. A session calls OnResult/OnError any
// number of times and OnEnd at most once.
type Handlers struct {
	OnResult func(Result)
	OnError  func(code string)
	OnEnd    func()
}

// Session is one event-driven speech-to-text capture.
type Session interface {
	Start(h Handlers) error
	Abort()
}

// Host creates recognition sessions.
type Host interface {
	RecognitionSupported() bool
	NewSession(cfg Config) (Session, error)
}

// Transcriber turns a recorded file into text (голос → текст).
type Transcriber interface {
	Transcribe(ctx context.Context, filePath, lang string) (string, error)
}
