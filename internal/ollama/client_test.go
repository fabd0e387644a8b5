package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pders01/voice-schema/internal/testutil"
)

// Mock Ollama API responses
type mockEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

type mockListResponse struct {
	Models []mockModel `json:"models"`
}

type mockModel struct {
	Name string `json:"name"`
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		model     string
		wantModel string
		wantErr   bool
	}{
		{
			name:      "with custom url and model",
			url:       "http://localhost:11434",
			model:     "custom-model",
			wantModel: "custom-model",
		},
		{
			name:      "with default url",
			url:       "",
			model:     "test-model",
			wantModel: "test-model",
		},
		{
			name:      "with default model",
			url:       "http://localhost:11434",
			model:     "",
			wantModel: DefaultModel,
		},
		{
			name:    "with invalid url",
			url:     "http://[::1",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.url, tt.model, "")

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if client.GetModel() != tt.wantModel {
				t.Errorf("expected model %s, got %s", tt.wantModel, client.GetModel())
			}
		})
	}
}

func TestIsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{
			name:     "available server",
			url:      server.URL,
			expected: true,
		},
		{
			name:     "unavailable server",
			url:      "http://localhost:99999",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsAvailable(tt.url)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestComplete(t *testing.T) {
	server := testutil.NewLLMServer(t, testutil.SampleReply)

	client, err := NewClient(server.URL, "llama3.1", "secret")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	reply, err := client.Complete(context.Background(), "describe the idea")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.Contains(reply, "Recipe Planner") {
		t.Errorf("reply = %q, want sample schema", reply)
	}
	if got := server.Authorization(); got != "Bearer secret" {
		t.Errorf("Authorization = %q, want bearer token", got)
	}
}

func TestCompleteWithoutCredential(t *testing.T) {
	server := testutil.NewLLMServer(t, testutil.SampleReply)

	client, err := NewClient(server.URL, "llama3.1", "")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	if _, err := client.Complete(context.Background(), "prompt"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got := server.Authorization(); got != "" {
		t.Errorf("Authorization = %q, want none", got)
	}
}

func TestCompleteErrors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		server := testutil.NewLLMServer(t, testutil.SampleReply)
		server.FailWith(http.StatusInternalServerError)

		client, _ := NewClient(server.URL, "llama3.1", "")
		if _, err := client.Complete(context.Background(), "prompt"); err == nil {
			t.Error("expected error from failing server")
		}
	})

	t.Run("empty reply", func(t *testing.T) {
		server := testutil.NewLLMServer(t, "  ")

		client, _ := NewClient(server.URL, "llama3.1", "")
		if _, err := client.Complete(context.Background(), "prompt"); err == nil {
			t.Error("expected error for empty reply")
		}
	})
}

func TestGenerateEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/embed" {
			response := mockEmbedResponse{
				Model: "test-model",
				Embeddings: [][]float32{
					{0.1, 0.2, 0.3, 0.4, 0.5},
				},
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(response)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client, err := NewClient(server.URL, DefaultEmbeddingModel, "")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	t.Run("empty text", func(t *testing.T) {
		if _, err := client.GenerateEmbedding(context.Background(), ""); err == nil {
			t.Error("expected error for empty text")
		}
	})

	t.Run("valid text", func(t *testing.T) {
		embedding, err := client.GenerateEmbedding(context.Background(), "test text")
		if err != nil {
			t.Fatalf("GenerateEmbedding: %v", err)
		}

		if len(embedding) != 5 {
			t.Fatalf("expected 5 dimensions, got %d", len(embedding))
		}
		if embedding[0] != float64(float32(0.1)) {
			t.Errorf("embedding[0] = %v, want float32 0.1 widened", embedding[0])
		}
	})
}

func TestCheckModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			response := mockListResponse{
				Models: []mockModel{
					{Name: "test-model"},
					{Name: "nomic-embed-text:latest"},
				},
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(response)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	tests := []struct {
		name    string
		model   string
		wantErr bool
	}{
		{"exact name", "test-model", false},
		{"latest tag", "nomic-embed-text", false},
		{"missing model", "nonexistent-model-xyz", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(server.URL, tt.model, "")
			if err != nil {
				t.Fatalf("failed to create client: %v", err)
			}

			err = client.CheckModel(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckModel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "ollama pull") {
				t.Errorf("error %q should suggest pulling the model", err)
			}
		})
	}
}
