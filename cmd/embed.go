package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/pders01/voice-schema/internal/config"
	"github.com/pders01/voice-schema/internal/embeddings"
	"github.com/pders01/voice-schema/internal/logging"
	"github.com/pders01/voice-schema/internal/ollama"
	"github.com/pders01/voice-schema/internal/store"
)

// newEmbedder returns the ollama embedding client, or nil when embeddings
// are disabled or ollama is not reachable.
func newEmbedder(s store.Store) embeddings.Embedder {
	if !config.GetEmbeddingsEnabled() || !ollama.IsAvailable(config.GetGenerationURL()) {
		return nil
	}
	client, err := ollama.NewClient(config.GetGenerationURL(), config.GetEmbeddingModel(), store.Credential(s))
	if err != nil {
		logging.Logger.Warn("Embedding client unavailable", "error", err)
		return nil
	}
	return client
}

// refreshEmbeddings brings the related-ideas index up to date. Failures are
// reported but never fail the calling command.
func refreshEmbeddings(ctx context.Context, ws *workspace, out io.Writer) *embeddings.Index {
	index := embeddings.Load(ws.store, logging.Logger)
	emb := newEmbedder(ws.store)
	if emb == nil {
		return index
	}

	n, err := index.Refresh(ctx, ws.repo.List(), emb)
	if err != nil {
		fmt.Fprintf(out, "Warning: embedding refresh incomplete: %v\n", err)
	} else if n > 0 {
		fmt.Fprintf(out, "✓ Embedded %d idea(s)\n", n)
	}
	return index
}
