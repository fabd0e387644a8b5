package schema

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pders01/voice-schema/internal/models"
)

const (
	headingDescription = "## Description"
	headingOutline     = "## Feature Outline"
	headingTechStack   = "## Tech Stack"
	headingPrompt      = "## Final Prompt"

	itemIndent = "  "
)

var (
	sectionHeadingRe = regexp.MustCompile(`^### (.+) \(Priority: (\w+)\)$`)
	slugInvalidRe    = regexp.MustCompile(`[^a-z0-9-]+`)
	slugDashesRe     = regexp.MustCompile(`-{2,}`)
)

// Render formats a schema as a markdown document.
func Render(s models.GeneratedSchema) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", s.ProjectTitle)
	fmt.Fprintf(&b, "%s\n", headingDescription)
	for _, line := range strings.Split(s.Description, "\n") {
		// a leading backslash keeps heading-like lines out of the outline
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, `\`) {
			line = `\` + line
		}
		fmt.Fprintf(&b, "%s\n", line)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s\n", headingOutline)
	for _, sec := range s.Sections {
		fmt.Fprintf(&b, "\n### %s (Priority: %s)\n", sec.Title, sec.Priority)
		for _, item := range sec.Content {
			writeItem(&b, item)
		}
	}

	fmt.Fprintf(&b, "\n%s\n", headingTechStack)
	for _, tech := range s.TechStack {
		writeItem(&b, tech)
	}

	fmt.Fprintf(&b, "\n%s\n%s\n", headingPrompt, s.FinalPrompt)
	return b.String()
}

// writeItem writes a list item, indenting continuation lines under it.
func writeItem(b *strings.Builder, item string) {
	b.WriteString("- ")
	b.WriteString(strings.ReplaceAll(item, "\n", "\n"+itemIndent))
	b.WriteString("\n")
}

// continueItem appends a continuation line to the last item of items.
func continueItem(items []string, line string) {
	if rest, ok := strings.CutPrefix(line, itemIndent); ok && len(items) > 0 {
		items[len(items)-1] += "\n" + rest
	}
}

// ParseDocument reads a document produced by Render back into a schema.
func ParseDocument(doc string) (models.GeneratedSchema, error) {
	s := models.GeneratedSchema{Sections: []models.Section{}, TechStack: []string{}}

	var (
		part        string
		description []string
		prompt      []string
		current     *models.Section
	)

	flush := func() {
		if current != nil {
			s.Sections = append(s.Sections, *current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(doc))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		// everything after the final prompt heading belongs to the prompt
		if part == headingPrompt {
			prompt = append(prompt, line)
			continue
		}

		switch {
		case s.ProjectTitle == "" && strings.HasPrefix(line, "# "):
			s.ProjectTitle = strings.TrimSpace(strings.TrimPrefix(line, "# "))
			continue
		case line == headingDescription, line == headingOutline, line == headingTechStack, line == headingPrompt:
			flush()
			part = line
			continue
		}

		switch part {
		case headingDescription:
			description = append(description, strings.TrimPrefix(line, `\`))
		case headingOutline:
			if m := sectionHeadingRe.FindStringSubmatch(line); m != nil {
				flush()
				current = &models.Section{Title: m[1], Content: []string{}, Priority: models.Priority(m[2])}
			} else if current != nil {
				if item, ok := strings.CutPrefix(line, "- "); ok {
					current.Content = append(current.Content, item)
				} else {
					continueItem(current.Content, line)
				}
			}
		case headingTechStack:
			if item, ok := strings.CutPrefix(line, "- "); ok {
				s.TechStack = append(s.TechStack, item)
			} else {
				continueItem(s.TechStack, line)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return models.GeneratedSchema{}, fmt.Errorf("failed to read document: %w", err)
	}
	flush()

	if s.ProjectTitle == "" {
		return models.GeneratedSchema{}, fmt.Errorf("document has no title: %w", models.ErrInput)
	}

	s.Description = strings.TrimSpace(strings.Join(description, "\n"))
	s.FinalPrompt = strings.TrimSpace(strings.Join(prompt, "\n"))
	return s, nil
}

// FileName returns the download name for an exported schema,
// e.g. "Aplicación de Tareas" -> "aplicacion-de-tareas-schema.md".
func FileName(s models.GeneratedSchema) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(stripMarks, s.ProjectTitle)
	if err != nil {
		plain = s.ProjectTitle
	}

	slug := strings.Join(strings.Fields(strings.ToLower(plain)), "-")
	slug = slugInvalidRe.ReplaceAllString(slug, "")
	slug = strings.Trim(slugDashesRe.ReplaceAllString(slug, "-"), "-")
	if slug == "" {
		slug = "project"
	}
	return slug + "-schema.md"
}
