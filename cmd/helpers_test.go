package cmd

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pders01/voice-schema/internal/config"
	"github.com/pders01/voice-schema/internal/ideas"
	"github.com/pders01/voice-schema/internal/store"
)

// setupWorkspace points config at a fresh temp home and store
func setupWorkspace(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	viper.Reset()
	config.SetDefaults()
	viper.Set("store.path", filepath.Join(dir, "store.json"))
	viper.Set("embeddings.enabled", false)
	cfgFile = ""
	t.Cleanup(viper.Reset)

	return dir
}

// seedRepo runs fn against the configured store with a clock fixed at now
func seedRepo(t *testing.T, now time.Time, fn func(repo *ideas.Repository)) {
	t.Helper()

	s, err := store.Open(config.GetStoreDriver(), config.GetStorePath())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()

	fn(ideas.NewRepository(s, ideas.WithClock(func() time.Time { return now })))
}

// readRepo returns the ideas currently persisted
func readRepo(t *testing.T) *ideas.Repository {
	t.Helper()

	s, err := store.Open(config.GetStoreDriver(), config.GetStorePath())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return ideas.NewRepository(s)
}

// run executes a command's RunE with flags set, capturing its output. Flags
// are restored to their defaults afterwards.
func run(t *testing.T, c *cobra.Command, runE func(*cobra.Command, []string) error, flags map[string]string, args ...string) (string, error) {
	t.Helper()

	t.Cleanup(func() { resetFlags(c) })
	for name, value := range flags {
		fs := c.Flags()
		if fs.Lookup(name) == nil {
			fs = c.PersistentFlags()
		}
		if err := fs.Set(name, value); err != nil {
			t.Fatalf("failed to set --%s: %v", name, err)
		}
	}

	var buf bytes.Buffer
	c.SetOut(&buf)
	c.SetErr(&buf)
	t.Cleanup(func() {
		c.SetOut(nil)
		c.SetErr(nil)
		c.SetIn(nil)
	})

	err := runE(c, args)
	return buf.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace([]string{})
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
}

func createIdea(t *testing.T, repo *ideas.Repository, title string, tags ...string) string {
	t.Helper()

	idea, err := repo.Create(title, "", nil)
	if err != nil {
		t.Fatalf("failed to create idea: %v", err)
	}
	for _, tag := range tags {
		if err := repo.AddTag(idea.ID, tag); err != nil {
			t.Fatalf("failed to tag idea: %v", err)
		}
	}
	return idea.ID
}
