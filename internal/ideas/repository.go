// Package ideas owns the idea library. Every operation reads the whole
// collection from the store, transforms it and writes it back while holding
// the repository lock, so read-modify-write cycles never interleave.
package ideas

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pders01/voice-schema/internal/logging"
	"github.com/pders01/voice-schema/internal/models"
	"github.com/pders01/voice-schema/internal/store"
)

// Repository provides CRUD, tagging and search over the idea collection.
type Repository struct {
	mu     sync.Mutex
	store  store.Store
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Repository
type Option func(*Repository)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithLogger sets the repository logger
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

// NewRepository creates a repository backed by s
func NewRepository(s store.Store, opts ...Option) *Repository {
	r := &Repository{store: s, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.Or(r.logger)
	return r
}

// load reads the collection. A read failure is returned rather than
// replaced by an empty library, so no write ever follows a failed read.
func (r *Repository) load() ([]models.Idea, error) {
	ideas, err := store.Read(r.store, store.KeyIdeas, []models.Idea{})
	if err != nil {
		return nil, fmt.Errorf("failed to read ideas: %w", err)
	}
	return ideas, nil
}

func (r *Repository) save(ideas []models.Idea) error {
	if err := store.Set(r.store, store.KeyIdeas, ideas); err != nil {
		return fmt.Errorf("failed to persist ideas: %w", err)
	}
	return nil
}

func (r *Repository) stamp() int64 {
	return r.now().UnixMilli()
}

// mutate applies fn to the idea with the given id and persists the result.
func (r *Repository) mutate(id string, fn func(*models.Idea) error) (models.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ideas, err := r.load()
	if err != nil {
		return models.Idea{}, err
	}
	i := indexOf(ideas, id)
	if i < 0 {
		return models.Idea{}, fmt.Errorf("%s: %w", id, models.ErrNotFound)
	}

	idea := ideas[i]
	if err := fn(&idea); err != nil {
		return models.Idea{}, err
	}
	idea.UpdatedAt = r.stamp()
	ideas[i] = idea

	if err := r.save(ideas); err != nil {
		return models.Idea{}, err
	}
	return idea, nil
}

// Create adds a new idea at the front of the collection.
func (r *Repository) Create(title, description string, segments []models.TranscriptSegment) (models.Idea, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Idea{}, fmt.Errorf("idea title is empty: %w", models.ErrInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.stamp()
	idea := models.Idea{
		ID:                 uuid.NewString(),
		Title:              title,
		Description:        description,
		TranscriptSegments: slices.Clone(segments),
		Tags:               []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if idea.TranscriptSegments == nil {
		idea.TranscriptSegments = []models.TranscriptSegment{}
	}

	existing, err := r.load()
	if err != nil {
		return models.Idea{}, err
	}
	if err := r.save(append([]models.Idea{idea}, existing...)); err != nil {
		return models.Idea{}, err
	}

	r.logger.Debug("Idea created", "id", idea.ID, "title", idea.Title)
	return idea, nil
}

// Get returns the idea with the given id
func (r *Repository) Get(id string) (models.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ideas, err := r.load()
	if err != nil {
		return models.Idea{}, err
	}
	if i := indexOf(ideas, id); i >= 0 {
		return ideas[i], nil
	}
	return models.Idea{}, fmt.Errorf("%s: %w", id, models.ErrNotFound)
}

// List returns the full collection, most recent first. A read failure is
// logged and yields an empty list.
func (r *Repository) List() []models.Idea {
	r.mu.Lock()
	defer r.mu.Unlock()

	ideas, err := r.load()
	if err != nil {
		r.logger.Warn("Listing ideas failed", "error", err)
		return []models.Idea{}
	}
	return ideas
}

// Update merges patch into the idea. It reports false with ErrNotFound when
// the id is absent, leaving the collection unchanged.
func (r *Repository) Update(id string, patch models.IdeaPatch) (bool, error) {
	_, err := r.mutate(id, func(idea *models.Idea) error {
		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return fmt.Errorf("idea title is empty: %w", models.ErrInput)
			}
			idea.Title = title
		}
		if patch.Description != nil {
			idea.Description = *patch.Description
		}
		if patch.TranscriptSegments != nil {
			idea.TranscriptSegments = slices.Clone(*patch.TranscriptSegments)
		}
		if patch.Tags != nil {
			idea.Tags = dedupe(*patch.Tags)
		}
		if patch.IsCompleted != nil {
			idea.IsCompleted = *patch.IsCompleted
		}
		return nil
	})
	return err == nil, err
}

// Delete removes the idea. Deleting an absent id is a no-op.
func (r *Repository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ideas, err := r.load()
	if err != nil {
		return err
	}
	i := indexOf(ideas, id)
	if i < 0 {
		return nil
	}
	return r.save(slices.Delete(ideas, i, i+1))
}

// AddTranscript appends segments to the idea's transcript in call order.
func (r *Repository) AddTranscript(id string, segments []models.TranscriptSegment) error {
	_, err := r.mutate(id, func(idea *models.Idea) error {
		idea.TranscriptSegments = append(idea.TranscriptSegments, segments...)
		return nil
	})
	return err
}

// ToggleCompletion flips the completed flag and returns the new value.
func (r *Repository) ToggleCompletion(id string) (bool, error) {
	idea, err := r.mutate(id, func(idea *models.Idea) error {
		idea.IsCompleted = !idea.IsCompleted
		return nil
	})
	return idea.IsCompleted, err
}

// AddTag adds tag to the idea; an existing tag is left as is.
func (r *Repository) AddTag(id, tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return fmt.Errorf("tag is empty: %w", models.ErrInput)
	}
	_, err := r.mutate(id, func(idea *models.Idea) error {
		if !idea.HasTag(tag) {
			idea.Tags = append(idea.Tags, tag)
		}
		return nil
	})
	return err
}

// RemoveTag removes tag from the idea if present.
func (r *Repository) RemoveTag(id, tag string) error {
	tag = strings.TrimSpace(tag)
	_, err := r.mutate(id, func(idea *models.Idea) error {
		idea.Tags = slices.DeleteFunc(idea.Tags, func(t string) bool { return t == tag })
		return nil
	})
	return err
}

// RenameTag replaces oldTag with newTag across the collection and returns
// the number of ideas changed.
func (r *Repository) RenameTag(oldTag, newTag string) (int, error) {
	newTag = strings.TrimSpace(newTag)
	if newTag == "" {
		return 0, fmt.Errorf("tag is empty: %w", models.ErrInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ideas, err := r.load()
	if err != nil {
		return 0, err
	}
	updated := 0
	for i := range ideas {
		if !ideas[i].HasTag(oldTag) {
			continue
		}
		for j, t := range ideas[i].Tags {
			if t == oldTag {
				ideas[i].Tags[j] = newTag
			}
		}
		ideas[i].Tags = dedupe(ideas[i].Tags)
		ideas[i].UpdatedAt = r.stamp()
		updated++
	}

	if updated == 0 {
		return 0, nil
	}
	return updated, r.save(ideas)
}

// Prune removes completed ideas last updated before cutoff unless they carry
// one of the preserve tags. It returns the removed ideas.
func (r *Repository) Prune(cutoff time.Time, preserveTags []string, dryRun bool) ([]models.Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ideas, err := r.load()
	if err != nil {
		return nil, err
	}
	var removed []models.Idea
	kept := make([]models.Idea, 0, len(ideas))
	for _, idea := range ideas {
		if idea.IsCompleted && idea.Updated().Before(cutoff) && !hasAny(idea, preserveTags) {
			removed = append(removed, idea)
			continue
		}
		kept = append(kept, idea)
	}

	if dryRun || len(removed) == 0 {
		return removed, nil
	}
	return removed, r.save(kept)
}

func indexOf(ideas []models.Idea, id string) int {
	return slices.IndexFunc(ideas, func(i models.Idea) bool { return i.ID == id })
}

func hasAny(idea models.Idea, tags []string) bool {
	for _, t := range tags {
		if idea.HasTag(t) {
			return true
		}
	}
	return false
}

func dedupe(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}
