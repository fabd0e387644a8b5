// Package session ties the capture engine to the idea library: while an idea
// is bound, every newly finalized transcript segment is appended to it.
package session

import (
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/sourcegraph/conc/panics"

	"github.com/pders01/voice-schema/internal/capture"
	"github.com/pders01/voice-schema/internal/ideas"
	"github.com/pders01/voice-schema/internal/logging"
	"github.com/pders01/voice-schema/internal/models"
)

// Update is sent to subscribers after every transcript change.
type Update struct {
	IdeaID   string
	Segments []models.TranscriptSegment
}

// Coordinator forwards captured segments to the bound idea.
type Coordinator struct {
	engine *capture.Engine
	repo   *ideas.Repository
	logger *slog.Logger

	mu     sync.Mutex
	ideaID string
	// forwarded counts the leading engine segments already persisted or
	// deliberately skipped.
	forwarded   int
	listeners   map[int]func(Update)
	nextID      int
	unsubscribe func()
}

// New creates a coordinator and subscribes it to engine.
func New(engine *capture.Engine, repo *ideas.Repository, logger *slog.Logger) *Coordinator {
	c := &Coordinator{
		engine:    engine,
		repo:      repo,
		logger:    logging.Or(logger),
		listeners: map[int]func(Update){},
	}
	c.unsubscribe = engine.Subscribe(c.onTranscript)
	return c
}

// Close detaches the coordinator from the engine
func (c *Coordinator) Close() {
	c.unsubscribe()
}

// BoundIdea returns the bound idea id, "" when unbound
func (c *Coordinator) BoundIdea() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ideaID
}

// Bind makes id the target of new segments and clears the transcript.
func (c *Coordinator) Bind(id string) error {
	if _, err := c.repo.Get(id); err != nil {
		return err
	}
	c.rebind(id, c.engine.Clear)
	c.logger.Debug("Session bound", "idea", id)
	return nil
}

// Open binds id and shows its stored transcript without listening. Only
// segments captured afterwards are appended.
func (c *Coordinator) Open(id string) (models.Idea, error) {
	idea, err := c.repo.Get(id)
	if err != nil {
		return models.Idea{}, err
	}
	c.rebind(id, func() { c.engine.Load(idea.TranscriptSegments) })
	c.logger.Debug("Session opened", "idea", id, "segments", len(idea.TranscriptSegments))
	return idea, nil
}

// Unbind stops forwarding segments
func (c *Coordinator) Unbind() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ideaID = ""
}

// rebind replaces the displayed transcript with reset while unbound, so the
// replaced segments are never forwarded, then binds id.
func (c *Coordinator) rebind(id string, reset func()) {
	c.Unbind()
	reset()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ideaID = id
	c.forwarded = len(c.engine.Segments())
}

// Start begins capturing
func (c *Coordinator) Start() error {
	return c.engine.Start()
}

// Stop ends capturing
func (c *Coordinator) Stop() {
	c.engine.Stop()
}

// Clear empties the displayed transcript; stored transcripts are untouched.
func (c *Coordinator) Clear() {
	c.engine.Clear()
}

// State returns the capture state
func (c *Coordinator) State() capture.State {
	return c.engine.State()
}

// Segments returns the displayed transcript
func (c *Coordinator) Segments() []models.TranscriptSegment {
	return c.engine.Segments()
}

// Subscribe registers fn for updates and returns a function removing it.
// Like engine listeners, fn must not call back into the coordinator
// synchronously.
func (c *Coordinator) Subscribe(fn func(Update)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// onTranscript runs on the engine's delivery path, so calls are ordered.
func (c *Coordinator) onTranscript(segments []models.TranscriptSegment) {
	c.mu.Lock()
	if len(segments) < c.forwarded {
		c.forwarded = len(segments)
	}
	id := c.ideaID
	var pending []models.TranscriptSegment
	if id != "" {
		pending = slices.Clone(segments[c.forwarded:])
	}
	c.forwarded = len(segments)

	ids := make([]int, 0, len(c.listeners))
	for lid := range c.listeners {
		ids = append(ids, lid)
	}
	slices.Sort(ids)
	listeners := make([]func(Update), len(ids))
	for i, lid := range ids {
		listeners[i] = c.listeners[lid]
	}
	c.mu.Unlock()

	if len(pending) > 0 {
		if err := c.repo.AddTranscript(id, pending); err != nil {
			c.logger.Warn("Failed to append transcript", "idea", id, "segments", len(pending), "error", err)
			if errors.Is(err, models.ErrNotFound) {
				c.unbindIf(id)
			}
		}
	}

	update := Update{IdeaID: id, Segments: segments}
	for _, fn := range listeners {
		var pc panics.Catcher
		pc.Try(func() { fn(update) })
		if r := pc.Recovered(); r != nil {
			c.logger.Error("Session listener panicked", "panic", r.String())
		}
	}
}

func (c *Coordinator) unbindIf(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ideaID == id {
		c.ideaID = ""
	}
}
