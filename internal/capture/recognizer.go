package capture

import (
	"context"
	"time"
)

// State is the externally observed capture state
type State int

const (
	StateIdle State = iota
	StateListening
	StateUnsupported
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// ErrorCode identifies a recognizer error
type ErrorCode string

const (
	ErrorNoSpeech     ErrorCode = "no-speech"
	ErrorAudioCapture ErrorCode = "audio-capture"
	ErrorNetwork      ErrorCode = "network"
	ErrorNotAllowed   ErrorCode = "not-allowed"
	ErrorAborted      ErrorCode = "aborted"
)

// Transient reports whether the error is expected during normal dictation
// (silence, a briefly unavailable microphone).
func (c ErrorCode) Transient() bool {
	return c == ErrorNoSpeech || c == ErrorAudioCapture
}

// EventKind distinguishes recognizer events
type EventKind string

const (
	EventResult EventKind = "result"
	EventError  EventKind = "error"
)

// Result is one recognition hypothesis. Interim results have Final=false.
type Result struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

// Event is delivered by a running recognizer session. For result events,
// Results holds the session's result list and ResultIndex the first entry
// that changed.
type Event struct {
	Kind        EventKind
	ResultIndex int
	Results     []Result
	Code        ErrorCode
}

// Options configure a recognition session
type Options struct {
	Locale         string
	Continuous     bool
	InterimResults bool
}

// Recognizer is the platform speech-recognition capability.
type Recognizer interface {
	// Supported probes for speech capability. It is called once per engine.
	Supported(ctx context.Context) bool
	// Start begins one recognition session.
	Start(ctx context.Context, opts Options) (Session, error)
}

// Session is one running recognition session. Its event channel is closed
// when the session ends, whether on its own, after an error, or after Stop.
type Session interface {
	Events() <-chan Event
	Stop() error
}

// Config holds the engine's fixed settings
type Config struct {
	Locale          string
	RestartDelay    time.Duration // after the recognizer ends on its own
	ErrorRetryDelay time.Duration // after a recognizer error or failed start
}

// DefaultConfig returns the standard Spanish dictation settings
func DefaultConfig() Config {
	return Config{
		Locale:          "es-ES",
		RestartDelay:    100 * time.Millisecond,
		ErrorRetryDelay: time.Second,
	}
}
