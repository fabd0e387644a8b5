package ideas

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/pders01/voice-schema/internal/models"
	"github.com/pders01/voice-schema/internal/schema"
)

// Search returns the ideas whose title, description or any tag contains
// query, ignoring case. Only the empty query returns the whole collection. The
// collection order is preserved.
func (r *Repository) Search(query string) []models.Idea {
	all := r.List()
	if query == "" {
		return all
	}
	return Filter(all, query)
}

// Filter applies the Search match to an in-memory slice.
func Filter(ideas []models.Idea, query string) []models.Idea {
	// A Caser is stateful, so each call folds with its own.
	fold := cases.Fold()
	q := fold.String(query)
	matches := []models.Idea{}
	for _, idea := range ideas {
		if matchesQuery(fold, idea, q) {
			matches = append(matches, idea)
		}
	}
	return matches
}

func matchesQuery(fold cases.Caser, idea models.Idea, foldedQuery string) bool {
	if strings.Contains(fold.String(idea.Title), foldedQuery) ||
		strings.Contains(fold.String(idea.Description), foldedQuery) {
		return true
	}
	for _, tag := range idea.Tags {
		if strings.Contains(fold.String(tag), foldedQuery) {
			return true
		}
	}
	return false
}

// ByTag returns the ideas carrying exactly tag
func (r *Repository) ByTag(tag string) []models.Idea {
	matches := []models.Idea{}
	for _, idea := range r.List() {
		if idea.HasTag(tag) {
			matches = append(matches, idea)
		}
	}
	return matches
}

// TagCount is a tag with the number of ideas using it
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TagCounts returns tag usage, most used first, ties by name
func (r *Repository) TagCounts() []TagCount {
	counts := make(map[string]int)
	for _, idea := range r.List() {
		for _, tag := range idea.Tags {
			counts[tag]++
		}
	}

	tags := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		tags = append(tags, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count == tags[j].Count {
			return tags[i].Tag < tags[j].Tag
		}
		return tags[i].Count > tags[j].Count
	})
	return tags
}

// CreateFromSchema saves a generated schema as a new idea, keeping the
// transcript it was generated from.
func (r *Repository) CreateFromSchema(s models.GeneratedSchema, segments []models.TranscriptSegment) (models.Idea, error) {
	return r.Create(s.ProjectTitle, schema.Render(s), segments)
}

// AttachSchema replaces the idea's description with the rendered schema.
func (r *Repository) AttachSchema(id string, s models.GeneratedSchema) error {
	rendered := schema.Render(s)
	_, err := r.Update(id, models.IdeaPatch{Description: &rendered})
	return err
}
