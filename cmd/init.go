package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pders01/voice-schema/internal/config"
	"github.com/pders01/voice-schema/internal/ollama"
)

const defaultConfig = `# vschema configuration

[store]
# json or sqlite
driver = "json"

[speech]
locale = "es-ES"
restart_delay = "100ms"
error_retry_delay = "1s"

[generation]
# ollama or openai
provider = "ollama"
model = "llama3.1"
url = "http://localhost:11434"
openai_url = "https://api.openai.com/v1"
require_credential = true

[embeddings]
enabled = true
model = "nomic-embed-text"

[retention]
days = 90
preserve_tags = ["important"]

[server]
addr = ":8080"
allowed_origins = ["http://localhost:5173"]
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default configuration and data directory",
	Long: `Create a default config file and the local data directory.

This command:
  - Writes $HOME/.config/vschema/config.toml if it doesn't exist
  - Creates the directory holding the idea store

Run this once before the first dictation.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	path := configPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		fmt.Fprintf(out, "✓ Created default config: %s\n", path)
	} else {
		fmt.Fprintf(out, "Config already exists: %s\n", path)
	}

	dataDir := filepath.Dir(config.GetStorePath())
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	fmt.Fprintf(out, "✓ Data directory: %s\n", dataDir)

	if config.GetGenerationProvider() == "ollama" {
		checkOllama(cmd, out)
	}

	fmt.Fprintln(out, "\n✓ vschema initialized successfully!")
	fmt.Fprintln(out, "  Set an API key with: vschema key set <key>")
	fmt.Fprintln(out, "  Then start dictating: vschema dictate")

	return nil
}

// checkOllama reports whether the generation and embedding models are pulled
func checkOllama(cmd *cobra.Command, out io.Writer) {
	url := config.GetGenerationURL()
	if !ollama.IsAvailable(url) {
		fmt.Fprintf(out, "Ollama not reachable at %s; start it before generating schemas\n", url)
		return
	}

	models := []string{config.GetGenerationModel()}
	if config.GetEmbeddingsEnabled() {
		models = append(models, config.GetEmbeddingModel())
	}
	for _, model := range models {
		client, err := ollama.NewClient(url, model, "")
		if err != nil {
			fmt.Fprintf(out, "Warning: %v\n", err)
			continue
		}
		if err := client.CheckModel(commandContext(cmd)); err != nil {
			fmt.Fprintf(out, "Warning: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "✓ Model available: %s\n", client.GetModel())
	}
}
