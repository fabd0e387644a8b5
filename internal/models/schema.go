package models

// Priority ranks a schema section
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Section is one prioritized block of a generated schema
type Section struct {
	Title    string   `json:"title"`
	Content  []string `json:"content"`
	Priority Priority `json:"priority"`
}

// GeneratedSchema is the structured project description produced from a transcript.
// It is never persisted on its own.
type GeneratedSchema struct {
	ProjectTitle string    `json:"projectTitle"`
	Description  string    `json:"description"`
	Sections     []Section `json:"sections"`
	TechStack    []string  `json:"techStack"`
	FinalPrompt  string    `json:"finalPrompt"`
}
