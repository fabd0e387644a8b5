package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// SetDefaults registers the default value of every setting
func SetDefaults() {
	viper.SetDefault("store.driver", "json")
	viper.SetDefault("store.path", "")
	viper.SetDefault("speech.socket", "")
	viper.SetDefault("speech.locale", "es-ES")
	viper.SetDefault("speech.restart_delay", 100*time.Millisecond)
	viper.SetDefault("speech.error_retry_delay", time.Second)
	viper.SetDefault("generation.provider", "ollama")
	viper.SetDefault("generation.model", "llama3.1")
	viper.SetDefault("generation.url", "http://localhost:11434")
	viper.SetDefault("generation.openai_url", "https://api.openai.com/v1")
	viper.SetDefault("generation.require_credential", true)
	viper.SetDefault("embeddings.enabled", true)
	viper.SetDefault("embeddings.model", "nomic-embed-text")
	viper.SetDefault("retention.days", 90)
	viper.SetDefault("retention.preserve_tags", []string{"important"})
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	viper.SetDefault("log.debug", false)
	viper.SetDefault("log.file", "")
}

// GetStoreDriver returns the persistent store backend (json or sqlite)
func GetStoreDriver() string {
	return viper.GetString("store.driver")
}

// GetStorePath returns the store location, defaulting to the data directory
func GetStorePath() string {
	if p := viper.GetString("store.path"); p != "" {
		return p
	}
	name := "store.json"
	if GetStoreDriver() == "sqlite" {
		name = "store.sqlite"
	}
	return filepath.Join(DataDir(), name)
}

// GetSpeechSocket returns the speech daemon socket path
func GetSpeechSocket() string {
	if p := viper.GetString("speech.socket"); p != "" {
		return p
	}
	if runtime := os.Getenv("XDG_RUNTIME_DIR"); runtime != "" {
		return filepath.Join(runtime, "vschema", "speech.sock")
	}
	return filepath.Join(DataDir(), "speech.sock")
}

// GetSpeechLocale returns the recognition language
func GetSpeechLocale() string {
	return viper.GetString("speech.locale")
}

// GetRestartDelay is the pause before restarting a recognizer that ended on its own
func GetRestartDelay() time.Duration {
	return viper.GetDuration("speech.restart_delay")
}

// GetErrorRetryDelay is the pause before restarting after a recognizer error
func GetErrorRetryDelay() time.Duration {
	return viper.GetDuration("speech.error_retry_delay")
}

// GetGenerationProvider returns ollama or openai
func GetGenerationProvider() string {
	return viper.GetString("generation.provider")
}

// GetGenerationModel returns the model used for schema generation
func GetGenerationModel() string {
	return viper.GetString("generation.model")
}

// GetGenerationURL returns the generation service base URL
func GetGenerationURL() string {
	return viper.GetString("generation.url")
}

// GetOpenAIURL returns the chat-completions base URL used by the openai provider
func GetOpenAIURL() string {
	return viper.GetString("generation.openai_url")
}

// GetRequireCredential reports whether generation refuses to run without an API key
func GetRequireCredential() bool {
	return viper.GetBool("generation.require_credential")
}

// GetEmbeddingsEnabled returns whether related-idea embeddings are enabled
func GetEmbeddingsEnabled() bool {
	return viper.GetBool("embeddings.enabled")
}

// GetEmbeddingModel returns the embedding model name
func GetEmbeddingModel() string {
	return viper.GetString("embeddings.model")
}

// GetRetentionDays returns the retention period in days
func GetRetentionDays() int {
	return viper.GetInt("retention.days")
}

// GetPreserveTags returns tags that should be preserved indefinitely
func GetPreserveTags() []string {
	return viper.GetStringSlice("retention.preserve_tags")
}

// GetServerAddr returns the HTTP listen address
func GetServerAddr() string {
	return viper.GetString("server.addr")
}

// GetAllowedOrigins returns the CORS origins for the HTTP API
func GetAllowedOrigins() []string {
	return viper.GetStringSlice("server.allowed_origins")
}

// GetDebug returns whether debug logging is on
func GetDebug() bool {
	return viper.GetBool("log.debug")
}

// GetLogFile returns a custom debug log path
func GetLogFile() string {
	return viper.GetString("log.file")
}

// ShouldPreserve checks if an idea with given tags should survive pruning
func ShouldPreserve(tags []string) bool {
	preserveTags := GetPreserveTags()
	for _, tag := range tags {
		for _, preserveTag := range preserveTags {
			if tag == preserveTag {
				return true
			}
		}
	}
	return false
}

// DataDir returns the directory holding the store and runtime files
func DataDir() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "vschema")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vschema"
	}
	return filepath.Join(home, ".local", "share", "vschema")
}

// ConfigDir returns the directory holding config.toml
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vschema"
	}
	return filepath.Join(home, ".config", "vschema")
}
