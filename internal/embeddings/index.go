package embeddings

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/pders01/voice-schema/internal/logging"
	"github.com/pders01/voice-schema/internal/models"
	"github.com/pders01/voice-schema/internal/store"
)

// ErrNotIndexed is returned by Related for an idea without an embedding.
var ErrNotIndexed = errors.New("idea has no embedding")

// maxConcurrentEmbeds bounds parallel requests to the embedding service.
const maxConcurrentEmbeds = 4

// Embedder turns text into a vector
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float64, error)
}

// Entry is the stored embedding of one idea. Hash identifies the idea
// content the vector was computed from.
type Entry struct {
	Hash   string    `json:"hash"`
	Vector []float64 `json:"vector"`
}

// Match is a related idea and its similarity score
type Match struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Index holds one unit-length vector per idea, persisted in the store.
type Index struct {
	mu      sync.RWMutex
	store   store.Store
	entries map[string]Entry
	logger  *slog.Logger
}

// Load reads the index from s. A missing or unreadable index starts empty.
func Load(s store.Store, logger *slog.Logger) *Index {
	entries := store.Get(s, store.KeyEmbeddings, map[string]Entry{})
	if entries == nil {
		entries = map[string]Entry{}
	}
	return &Index{store: s, entries: entries, logger: logging.Or(logger)}
}

// Len returns the number of indexed ideas
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Has reports whether id has an entry
func (ix *Index) Has(id string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.entries[id]
	return ok
}

// Text is the content embedded for an idea.
func Text(idea models.Idea) string {
	parts := []string{idea.Title}
	if idea.Description != "" {
		parts = append(parts, idea.Description)
	}
	if t := idea.Transcript(); t != "" {
		parts = append(parts, t)
	}
	if len(idea.Tags) > 0 {
		parts = append(parts, strings.Join(idea.Tags, " "))
	}
	return strings.Join(parts, "\n")
}

// ContentHash fingerprints the embedded text of an idea.
func ContentHash(idea models.Idea) string {
	sum := sha256.Sum256([]byte(Text(idea)))
	return hex.EncodeToString(sum[:])
}

type embedded struct {
	id    string
	entry Entry
}

// Refresh brings the index in line with ideas: entries of deleted ideas are
// dropped and ideas whose content changed are re-embedded in parallel. Ideas
// that fail to embed keep no entry; their errors are joined in the result.
// It returns the number of ideas embedded.
func (ix *Index) Refresh(ctx context.Context, ideas []models.Idea, emb Embedder) (int, error) {
	ix.mu.RLock()
	var stale []models.Idea
	for _, idea := range ideas {
		if e, ok := ix.entries[idea.ID]; !ok || e.Hash != ContentHash(idea) {
			stale = append(stale, idea)
		}
	}
	ix.mu.RUnlock()

	p := pool.NewWithResults[embedded]().WithContext(ctx).WithMaxGoroutines(maxConcurrentEmbeds)
	for _, idea := range stale {
		p.Go(func(ctx context.Context) (embedded, error) {
			vec, err := emb.GenerateEmbedding(ctx, Text(idea))
			if err != nil {
				return embedded{}, fmt.Errorf("embed %s: %w", idea.ID, err)
			}
			if err := Validate(vec); err != nil {
				return embedded{}, fmt.Errorf("embed %s: %w", idea.ID, err)
			}
			unit, err := Normalize(vec)
			if err != nil {
				return embedded{}, fmt.Errorf("embed %s: %w", idea.ID, err)
			}
			return embedded{id: idea.ID, entry: Entry{Hash: ContentHash(idea), Vector: unit}}, nil
		})
	}
	results, embedErr := p.Wait()

	live := make(map[string]bool, len(ideas))
	for _, idea := range ideas {
		live[idea.ID] = true
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	for id := range ix.entries {
		if !live[id] {
			delete(ix.entries, id)
		}
	}
	for _, r := range results {
		ix.entries[r.id] = r.entry
	}

	if err := store.Set(ix.store, store.KeyEmbeddings, ix.entries); err != nil {
		return len(results), fmt.Errorf("failed to save embeddings: %w", err)
	}

	ix.logger.Debug("Embeddings refreshed", "embedded", len(results), "stale", len(stale), "total", len(ix.entries))
	return len(results), embedErr
}

// Related returns up to k indexed ideas most similar to id, best first.
func (ix *Index) Related(id string, k int) ([]Match, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	target, ok := ix.entries[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotIndexed)
	}

	matches := make([]Match, 0, len(ix.entries))
	for otherID, e := range ix.entries {
		if otherID == id {
			continue
		}
		score, err := DotProduct(target.Vector, e.Vector)
		if err != nil {
			// vectors from a different embedding model
			continue
		}
		matches = append(matches, Match{ID: otherID, Score: score})
	}

	slices.SortFunc(matches, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}
