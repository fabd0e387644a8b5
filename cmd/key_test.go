package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/pders01/voice-schema/internal/config"
	"github.com/pders01/voice-schema/internal/models"
	"github.com/pders01/voice-schema/internal/store"
)

func storedKey(t *testing.T) string {
	t.Helper()
	s, err := store.Open(config.GetStoreDriver(), config.GetStorePath())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()
	return store.Credential(s)
}

func TestKeySetShowClear(t *testing.T) {
	setupWorkspace(t)

	if _, err := run(t, keySetCmd, runKeySet, nil, "sk-test-1234"); err != nil {
		t.Fatalf("key set failed: %v", err)
	}
	if got := storedKey(t); got != "sk-test-1234" {
		t.Errorf("stored key = %q", got)
	}

	output, err := run(t, keyShowCmd, runKeyShow, nil)
	if err != nil {
		t.Fatalf("key show failed: %v", err)
	}
	if strings.Contains(output, "sk-test") || !strings.HasSuffix(strings.TrimSpace(output), "1234") {
		t.Errorf("key not masked: %s", output)
	}

	if _, err := run(t, keyClearCmd, runKeyClear, nil); err != nil {
		t.Fatalf("key clear failed: %v", err)
	}
	if got := storedKey(t); got != "" {
		t.Errorf("key not cleared: %q", got)
	}

	output, err = run(t, keyShowCmd, runKeyShow, nil)
	if err != nil {
		t.Fatalf("key show failed: %v", err)
	}
	if !strings.Contains(output, "No API key configured") {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestKeySetFromStdin(t *testing.T) {
	setupWorkspace(t)

	keySetCmd.SetIn(strings.NewReader("  sk-from-stdin\n"))
	if _, err := run(t, keySetCmd, runKeySet, nil); err != nil {
		t.Fatalf("key set failed: %v", err)
	}
	if got := storedKey(t); got != "sk-from-stdin" {
		t.Errorf("stored key = %q", got)
	}
}

func TestKeySetEmpty(t *testing.T) {
	setupWorkspace(t)

	_, err := run(t, keySetCmd, runKeySet, nil, "   ")
	if !errors.Is(err, models.ErrInput) {
		t.Errorf("expected ErrInput, got %v", err)
	}
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"abc", "***"},
		{"abcd", "****"},
		{"sk-123456", "*****3456"},
	}
	for _, tt := range tests {
		if got := maskKey(tt.key); got != tt.want {
			t.Errorf("maskKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
