package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/voice-schema/internal/config"
	"github.com/pders01/voice-schema/internal/logging"
	"github.com/pders01/voice-schema/internal/models"
	"github.com/pders01/voice-schema/internal/ollama"
	"github.com/pders01/voice-schema/internal/openai"
	"github.com/pders01/voice-schema/internal/schema"
	"github.com/pders01/voice-schema/internal/store"
)

var (
	generateIdea   string
	generateSave   bool
	generateAttach bool
	generateExport string
	generateJSON   bool
	generateToon   bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [transcript...]",
	Short: "Generate a project schema from a transcript",
	Long: `Send a transcript to the configured generation service and print the
resulting project schema as markdown.

The transcript comes from, in order of preference:
  - an idea's stored transcript (--idea)
  - the command arguments
  - standard input

Examples:
  vschema generate --idea 3f2a
  vschema generate --idea 3f2a --attach
  vschema generate "una app para planificar recetas" --save
  cat notes.txt | vschema generate --export .`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&generateIdea, "idea", "", "Use the transcript of this idea")
	generateCmd.Flags().BoolVar(&generateSave, "save", false, "Save the schema as a new idea")
	generateCmd.Flags().BoolVar(&generateAttach, "attach", false, "Store the schema as the description of --idea")
	generateCmd.Flags().StringVar(&generateExport, "export", "", "Write the markdown document to this file or directory")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "Output as JSON")
	generateCmd.Flags().BoolVar(&generateToon, "toon", false, "Output in LLM-friendly toon format")
}

// newBackend builds the backend named by generation.provider
func newBackend(credential string) (schema.Backend, error) {
	switch provider := config.GetGenerationProvider(); provider {
	case "", "ollama":
		client, err := ollama.NewClient(config.GetGenerationURL(), config.GetGenerationModel(), credential)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrConfiguration, err)
		}
		return client, nil
	case "openai":
		return openai.NewClient(config.GetOpenAIURL(), config.GetGenerationModel(), credential), nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q (available: ollama, openai): %w", provider, models.ErrConfiguration)
	}
}

// newGenerator returns a generator that reads the stored credential on every
// call, so a key set while a long-running command is up takes effect.
func newGenerator(s store.Store) schema.Generator {
	return schema.GeneratorFunc(func(ctx context.Context, transcript string) (models.GeneratedSchema, error) {
		credential := store.Credential(s)
		backend, err := newBackend(credential)
		if err != nil {
			return models.GeneratedSchema{}, err
		}
		return schema.NewClient(backend, credential, config.GetRequireCredential(), logging.Logger).Generate(ctx, transcript)
	})
}

func runGenerate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ctx := commandContext(cmd)

	if generateAttach && generateIdea == "" {
		return fmt.Errorf("--attach requires --idea: %w", models.ErrInput)
	}

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	var (
		ideaID   string
		segments []models.TranscriptSegment
	)
	switch {
	case generateIdea != "":
		ideaID, err = resolveID(ws.repo, generateIdea)
		if err != nil {
			return err
		}
		idea, err := ws.repo.Get(ideaID)
		if err != nil {
			return err
		}
		segments = idea.TranscriptSegments
	default:
		text := strings.Join(args, " ")
		if len(args) == 0 || text == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read transcript from stdin: %w", err)
			}
			text = string(data)
		}
		if text = strings.TrimSpace(text); text != "" {
			segments = []models.TranscriptSegment{{ID: "segment-0", Text: text, Timestamp: time.Now().UnixMilli()}}
		}
	}

	generated, err := newGenerator(ws.store).Generate(ctx, schema.Transcript(segments))
	if err != nil {
		return err
	}

	if generateAttach {
		if err := ws.repo.AttachSchema(ideaID, generated); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Attached schema to idea %s\n", shortID(ideaID))
	}
	if generateSave {
		idea, err := ws.repo.CreateFromSchema(generated, segments)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Saved schema as idea %s\n", shortID(idea.ID))
	}
	if generateExport != "" {
		path, err := writeDocument(generateExport, generated)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported %s\n", path)
	}

	if done, err := writeStructured(out, generated, generateJSON, generateToon); done {
		return err
	}
	fmt.Fprint(out, schema.Render(generated))
	return nil
}

// writeDocument writes the rendered schema to target. A directory target
// receives the document under its derived file name.
func writeDocument(target string, s models.GeneratedSchema) (string, error) {
	path := target
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		path = filepath.Join(target, schema.FileName(s))
	}
	if err := os.WriteFile(path, []byte(schema.Render(s)), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
