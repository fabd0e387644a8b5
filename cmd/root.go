package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alpkeskin/gotoon"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pders01/voice-schema/internal/config"
	"github.com/pders01/voice-schema/internal/ideas"
	"github.com/pders01/voice-schema/internal/logging"
	"github.com/pders01/voice-schema/internal/models"
	"github.com/pders01/voice-schema/internal/store"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "vschema",
	Short: "Dictate ideas and turn them into project schemas",
	Long: `vschema captures spoken ideas as transcripts and turns them into
structured project schemas:
  - continuous dictation that survives recognizer pauses and errors
  - a local idea library with tags, search and completion tracking
  - schema generation through ollama or an OpenAI-compatible service
  - markdown export of generated schemas

Everything is stored locally; only generation talks to a remote service.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorMessage(err))
		os.Exit(1)
	}
}

// errorMessage prefers the user-facing message for known error kinds
func errorMessage(err error) string {
	for _, kind := range []error{models.ErrConfiguration, models.ErrService, models.ErrRecognitionUnsupported} {
		if errors.Is(err, kind) {
			return models.UserMessage(err)
		}
	}
	return "Error: " + err.Error()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/vschema/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write debug logs")
	viper.BindPFlag("log.debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	// A missing .env is the normal case
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(config.ConfigDir())
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("VSCHEMA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	config.SetDefaults()

	if err := viper.ReadInConfig(); err == nil && config.GetDebug() {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	if err := logging.Initialize(config.GetDebug(), config.GetLogFile()); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: failed to initialize logging:", err)
	}
}

// workspace is the store and idea repository a command operates on
type workspace struct {
	store store.Store
	repo  *ideas.Repository
}

func openWorkspace() (*workspace, error) {
	s, err := store.Open(config.GetStoreDriver(), config.GetStorePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return &workspace{
		store: s,
		repo:  ideas.NewRepository(s, ideas.WithLogger(logging.Logger)),
	}, nil
}

func (w *workspace) Close() error {
	return w.store.Close()
}

// writeStructured prints v as JSON or toon when either flag is set and
// reports whether it did.
func writeStructured(out io.Writer, v any, asJSON, asToon bool) (bool, error) {
	switch {
	case asJSON:
		output, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(output))
		return true, nil
	case asToon:
		output, err := gotoon.Encode(v)
		if err != nil {
			return true, fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Fprintln(out, output)
		return true, nil
	default:
		return false, nil
	}
}

// shortID trims a uuid to its first block for human-readable listings
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// resolveID accepts a full id or a unique prefix of one
func resolveID(repo *ideas.Repository, ref string) (string, error) {
	if idea, err := repo.Get(ref); err == nil {
		return idea.ID, nil
	}
	var matches []string
	for _, idea := range repo.List() {
		if strings.HasPrefix(idea.ID, ref) {
			matches = append(matches, idea.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no idea matches %q: %w", ref, models.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%q is ambiguous (%d ideas): %w", ref, len(matches), models.ErrInput)
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return filepath.Join(config.ConfigDir(), "config.toml")
}
