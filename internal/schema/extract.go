package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pders01/voice-schema/internal/models"
)

var errNoJSON = errors.New("no JSON object found in reply")

// ExtractJSON returns the first well-formed JSON object embedded in reply,
// skipping any prose around it.
func ExtractJSON(reply string) (string, error) {
	for start := strings.IndexByte(reply, '{'); start >= 0; {
		if end := matchingBrace(reply, start); end > start {
			candidate := reply[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}

		next := strings.IndexByte(reply[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", errNoJSON
}

// matchingBrace returns the index of the brace closing the one at start,
// ignoring braces inside JSON strings, or -1.
func matchingBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// Parse decodes and validates a schema JSON object.
func Parse(raw string) (models.GeneratedSchema, error) {
	var s models.GeneratedSchema
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return models.GeneratedSchema{}, fmt.Errorf("reply does not match the schema shape: %v: %w", err, models.ErrService)
	}
	if err := normalize(&s); err != nil {
		return models.GeneratedSchema{}, fmt.Errorf("%v: %w", err, models.ErrService)
	}
	return s, nil
}

// ParseReply extracts the JSON object from a raw model reply and parses it.
func ParseReply(reply string) (models.GeneratedSchema, error) {
	raw, err := ExtractJSON(reply)
	if err != nil {
		return models.GeneratedSchema{}, fmt.Errorf("%v: %w", err, models.ErrService)
	}
	return Parse(raw)
}

func normalize(s *models.GeneratedSchema) error {
	s.ProjectTitle = strings.TrimSpace(s.ProjectTitle)
	if s.ProjectTitle == "" {
		return errors.New("schema has no projectTitle")
	}

	if s.Sections == nil {
		s.Sections = []models.Section{}
	}
	for i := range s.Sections {
		sec := &s.Sections[i]
		sec.Title = strings.TrimSpace(sec.Title)
		if sec.Title == "" {
			return fmt.Errorf("section %d has no title", i)
		}
		sec.Priority = models.Priority(strings.ToLower(strings.TrimSpace(string(sec.Priority))))
		if !sec.Priority.Valid() {
			return fmt.Errorf("section %q has invalid priority %q", sec.Title, sec.Priority)
		}
		if sec.Content == nil {
			sec.Content = []string{}
		}
	}

	if s.TechStack == nil {
		s.TechStack = []string{}
	}
	return nil
}
