package models

import (
	"strings"
	"time"
)

// TranscriptSegment is one finalized chunk of speech-to-text output.
// ID is only unique within the capture session that produced it.
type TranscriptSegment struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // epoch milliseconds
}

// Idea is a persisted unit of user work
type Idea struct {
	ID                 string              `json:"id"`
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	TranscriptSegments []TranscriptSegment `json:"transcriptSegments"`
	Tags               []string            `json:"tags"`
	IsCompleted        bool                `json:"isCompleted"`
	CreatedAt          int64               `json:"createdAt"`
	UpdatedAt          int64               `json:"updatedAt"`
}

// IdeaPatch holds the mutable fields of an Idea. Nil fields are left untouched.
type IdeaPatch struct {
	Title              *string              `json:"title,omitempty"`
	Description        *string              `json:"description,omitempty"`
	TranscriptSegments *[]TranscriptSegment `json:"transcriptSegments,omitempty"`
	Tags               *[]string            `json:"tags,omitempty"`
	IsCompleted        *bool                `json:"isCompleted,omitempty"`
}

// HasTag reports whether the idea carries tag
func (i Idea) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Transcript joins the idea's segment texts
func (i Idea) Transcript() string {
	return JoinTranscript(i.TranscriptSegments)
}

// Created returns CreatedAt as a time.Time
func (i Idea) Created() time.Time {
	return time.UnixMilli(i.CreatedAt)
}

// Updated returns UpdatedAt as a time.Time
func (i Idea) Updated() time.Time {
	return time.UnixMilli(i.UpdatedAt)
}

// JoinTranscript concatenates segment texts separated by a single space.
func JoinTranscript(segments []TranscriptSegment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if text := strings.TrimSpace(s.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// StringPtr returns a pointer to s. Convenience for building patches.
func StringPtr(s string) *string { return &s }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }
