// Package schema turns a transcript into a GeneratedSchema and renders
// schemas as markdown documents.
package schema

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pders01/voice-schema/internal/logging"
	"github.com/pders01/voice-schema/internal/models"
)

// Backend sends a prompt to a structured-generation service and returns the
// raw reply text.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generator produces a schema from transcript text
type Generator interface {
	Generate(ctx context.Context, transcript string) (models.GeneratedSchema, error)
}

// GeneratorFunc adapts a function to the Generator interface
type GeneratorFunc func(ctx context.Context, transcript string) (models.GeneratedSchema, error)

func (f GeneratorFunc) Generate(ctx context.Context, transcript string) (models.GeneratedSchema, error) {
	return f(ctx, transcript)
}

// Client validates preconditions, calls the backend once and parses its reply.
// It never retries.
type Client struct {
	backend           Backend
	credential        string
	requireCredential bool
	logger            *slog.Logger
}

// NewClient wraps backend. When requireCredential is set, Generate refuses to
// run without a credential.
func NewClient(backend Backend, credential string, requireCredential bool, logger *slog.Logger) *Client {
	return &Client{
		backend:           backend,
		credential:        credential,
		requireCredential: requireCredential,
		logger:            logging.Or(logger),
	}
}

// Generate returns a fully populated schema or an error; never a partial schema.
func (c *Client) Generate(ctx context.Context, transcript string) (models.GeneratedSchema, error) {
	if c.requireCredential && strings.TrimSpace(c.credential) == "" {
		return models.GeneratedSchema{}, fmt.Errorf("API key not configured: %w", models.ErrConfiguration)
	}
	if strings.TrimSpace(transcript) == "" {
		return models.GeneratedSchema{}, fmt.Errorf("transcript is empty: %w", models.ErrInput)
	}

	reply, err := c.backend.Complete(ctx, Prompt(transcript))
	if err != nil {
		c.logger.Error("Schema generation failed", "error", err)
		return models.GeneratedSchema{}, fmt.Errorf("generation request failed: %w: %w", models.ErrService, err)
	}

	s, err := ParseReply(reply)
	if err != nil {
		c.logger.Error("Schema reply unusable", "error", err, "reply_len", len(reply))
		return models.GeneratedSchema{}, err
	}
	return s, nil
}

// Transcript joins segment texts the way they are sent to the generator.
func Transcript(segments []models.TranscriptSegment) string {
	return models.JoinTranscript(segments)
}
