// Package speech connects the capture engine to the local speech daemon.
// The daemon owns the microphone and the recognition model; this package
// speaks its NDJSON protocol over a Unix socket.
package speech

import "github.com/pders01/voice-schema/internal/capture"

// Command is sent from a client to the daemon.
type Command struct {
	Cmd            string `json:"cmd"`
	Locale         string `json:"locale,omitempty"`
	Continuous     *bool  `json:"continuous,omitempty"`
	InterimResults *bool  `json:"interimResults,omitempty"`
}

// Response is returned by the daemon after processing a command.
type Response struct {
	OK        bool   `json:"ok"`
	Supported *bool  `json:"supported,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Message is streamed from the daemon after a successful start.
type Message struct {
	Event       string           `json:"event"`
	ResultIndex int              `json:"resultIndex,omitempty"`
	Results     []capture.Result `json:"results,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// Event names
const (
	EventResult = "result"
	EventError  = "error"
	EventEnd    = "end"
)

// BoolPtr returns a pointer to a bool value. Convenience for building commands.
func BoolPtr(b bool) *bool { return &b }
