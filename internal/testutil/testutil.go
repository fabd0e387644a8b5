// Package testutil holds fakes shared by the package tests: temporary
// stores, a scriptable speech recognizer and canned generation servers.
package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pders01/voice-schema/internal/capture"
	"github.com/pders01/voice-schema/internal/store"
)

// NewTempStore opens a JSON file store in a temporary directory. It is
// closed when the test ends.
func NewTempStore(t *testing.T) store.Store {
	t.Helper()

	s, err := store.Open("json", filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("failed to open temp store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// FastCaptureConfig returns engine settings with millisecond restart delays.
func FastCaptureConfig() capture.Config {
	return capture.Config{
		Locale:          "es-ES",
		RestartDelay:    time.Millisecond,
		ErrorRetryDelay: 5 * time.Millisecond,
	}
}

// FakeRecognizer is a capture.Recognizer driven by the test. Every Start
// creates a FakeSession that the test retrieves with NextSession.
type FakeRecognizer struct {
	Unsupported bool

	mu        sync.Mutex
	startErrs []error
	starts    int
	started   chan *FakeSession
}

// NewFakeRecognizer returns a supported recognizer
func NewFakeRecognizer() *FakeRecognizer {
	return &FakeRecognizer{started: make(chan *FakeSession, 64)}
}

// FailNextStart makes the next Start call return err
func (f *FakeRecognizer) FailNextStart(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startErrs = append(f.startErrs, err)
}

// Starts returns how many times Start was called
func (f *FakeRecognizer) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func (f *FakeRecognizer) Supported(context.Context) bool {
	return !f.Unsupported
}

func (f *FakeRecognizer) Start(_ context.Context, opts capture.Options) (capture.Session, error) {
	f.mu.Lock()
	f.starts++
	if len(f.startErrs) > 0 {
		err := f.startErrs[0]
		f.startErrs = f.startErrs[1:]
		f.mu.Unlock()
		return nil, err
	}
	f.mu.Unlock()

	s := &FakeSession{Opts: opts, events: make(chan capture.Event, 64)}
	f.started <- s
	return s, nil
}

// NextSession waits for the next started session
func (f *FakeRecognizer) NextSession(t *testing.T) *FakeSession {
	t.Helper()

	select {
	case s := <-f.started:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("recognizer session was not started")
		return nil
	}
}

// FakeSession is one scripted recognition session
type FakeSession struct {
	Opts capture.Options

	mu      sync.Mutex
	closed  bool
	stopped atomic.Bool
	events  chan capture.Event
}

func (s *FakeSession) Events() <-chan capture.Event {
	return s.events
}

func (s *FakeSession) Stop() error {
	s.stopped.Store(true)
	s.End()
	return nil
}

// Stopped reports whether the engine stopped this session
func (s *FakeSession) Stopped() bool {
	return s.stopped.Load()
}

// Emit delivers ev unless the session has ended
func (s *FakeSession) Emit(ev capture.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.events <- ev
}

// Final emits a single finalized result
func (s *FakeSession) Final(text string) {
	s.Emit(capture.Event{
		Kind:    capture.EventResult,
		Results: []capture.Result{{Text: text, Final: true}},
	})
}

// Interim emits a single non-final result
func (s *FakeSession) Interim(text string) {
	s.Emit(capture.Event{
		Kind:    capture.EventResult,
		Results: []capture.Result{{Text: text}},
	})
}

// Fail emits an error and ends the session, as recognizers do.
func (s *FakeSession) Fail(code capture.ErrorCode) {
	s.Emit(capture.Event{Kind: capture.EventError, Code: code})
	s.End()
}

// End closes the session's event stream
func (s *FakeSession) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

// LLMServer is a canned generation service speaking both the Ollama and the
// OpenAI chat-completions APIs.
type LLMServer struct {
	*httptest.Server

	mu       sync.Mutex
	reply    string
	status   int
	requests int
	auth     string
}

// NewLLMServer starts a server answering every generation request with reply.
func NewLLMServer(t *testing.T, reply string) *LLMServer {
	t.Helper()

	s := &LLMServer{reply: reply, status: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", s.handle(func(reply string) any {
		return map[string]any{"model": "test", "response": reply, "done": true}
	}))
	mux.HandleFunc("/chat/completions", s.handle(func(reply string) any {
		return map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": reply}}},
		}
	}))
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input any `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		text, _ := req.Input.(string)
		writeJSON(w, map[string]any{"model": "test", "embeddings": [][]float32{FakeEmbedding(text)}})
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Ollama is running"))
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"models": []map[string]string{{"name": "llama3.1:latest", "model": "llama3.1:latest"}}})
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// SetReply changes the generation reply
func (s *LLMServer) SetReply(reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reply = reply
}

// FailWith makes generation requests answer with status
func (s *LLMServer) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Requests returns how many generation requests were served
func (s *LLMServer) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Authorization returns the Authorization header of the last generation request
func (s *LLMServer) Authorization() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth
}

func (s *LLMServer) handle(body func(reply string) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		s.auth = r.Header.Get("Authorization")
		reply, status := s.reply, s.status
		s.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			writeJSON(w, map[string]any{"error": map[string]string{"message": "upstream failure"}})
			return
		}
		writeJSON(w, body(reply))
	}
}

// FakeEmbedding derives a small deterministic vector from text so similar
// strings produce nearby vectors.
func FakeEmbedding(text string) []float32 {
	v := make([]float32, 8)
	for _, r := range text {
		v[int(r)%len(v)] += 1
	}
	v[0] += 0.5
	return v
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// SampleReply is a well-formed schema generation reply
const SampleReply = `Here is your schema:
{
  "projectTitle": "Recipe Planner",
  "description": "Plan weekly meals from saved recipes.",
  "sections": [
    {"title": "Recipes", "content": ["Import from URL", "Tag by cuisine"], "priority": "high"},
    {"title": "Shopping list", "content": ["Merge ingredients"], "priority": "Medium"}
  ],
  "techStack": ["Go", "SQLite"],
  "finalPrompt": "Build a recipe planner."
}`
