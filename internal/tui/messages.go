package tui

import (
	"github.com/pders01/voice-schema/internal/capture"
	"github.com/pders01/voice-schema/internal/models"
)

// TranscriptMsg carries the current transcript after a change.
type TranscriptMsg struct {
	IdeaID   string
	Segments []models.TranscriptSegment
}

// StateMsg reports the capture state after a start or stop.
type StateMsg struct {
	State capture.State
	Err   error
}

// SchemaMsg carries a generation result.
type SchemaMsg struct {
	Schema models.GeneratedSchema
	Err    error
}

// SavedMsg reports where a schema was saved.
type SavedMsg struct {
	IdeaID   string
	Attached bool
	Err      error
}

// ClearErrorMsg clears the error bar after a timeout.
type ClearErrorMsg struct{}
