package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/voice-schema/internal/capture"
	"github.com/pders01/voice-schema/internal/ideas"
	"github.com/pders01/voice-schema/internal/models"
	"github.com/pders01/voice-schema/internal/schema"
	"github.com/pders01/voice-schema/internal/testutil"
)

type fakeController struct {
	state    capture.State
	segments []models.TranscriptSegment
	ideaID   string
	starts   int
	stops    int
	clears   int
}

func (f *fakeController) Start() error {
	f.starts++
	if f.state == capture.StateUnsupported {
		return models.ErrRecognitionUnsupported
	}
	f.state = capture.StateListening
	return nil
}

func (f *fakeController) Stop() {
	f.stops++
	if f.state == capture.StateListening {
		f.state = capture.StateIdle
	}
}

func (f *fakeController) Clear()                                { f.clears++; f.segments = nil }
func (f *fakeController) State() capture.State                  { return f.state }
func (f *fakeController) Segments() []models.TranscriptSegment { return f.segments }
func (f *fakeController) BoundIdea() string                     { return f.ideaID }

func sampleSchema() models.GeneratedSchema {
	return models.GeneratedSchema{
		ProjectTitle: "Recipe Planner",
		Description:  "Plan meals",
		Sections:     []models.Section{{Title: "Core", Content: []string{"a"}, Priority: models.PriorityHigh}},
		TechStack:    []string{"Go"},
		FinalPrompt:  "Build it",
	}
}

func stubGenerator(s models.GeneratedSchema, err error) schema.Generator {
	return schema.GeneratorFunc(func(context.Context, string) (models.GeneratedSchema, error) {
		return s, err
	})
}

func applyUpdate(m Model, msg tea.Msg) (Model, tea.Cmd) {
	newModel, cmd := m.Update(msg)
	return newModel.(Model), cmd
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press applies a key and runs the resulting command once.
func press(m Model, s string) Model {
	m, cmd := applyUpdate(m, key(s))
	if cmd == nil {
		return m
	}
	if msg := cmd(); msg != nil {
		m, _ = applyUpdate(m, msg)
	}
	return m
}

func TestNewModel(t *testing.T) {
	ctl := &fakeController{segments: []models.TranscriptSegment{{Text: "hola"}}, ideaID: "idea-1"}
	m := New(context.Background(), ctl, nil, nil, "Idea")

	if m.state != capture.StateIdle {
		t.Errorf("state = %v, want idle", m.state)
	}
	if len(m.segments) != 1 || m.ideaID != "idea-1" {
		t.Errorf("model should start from the controller's transcript, got %+v", m)
	}
	if m.View() != "Initializing..." {
		t.Error("view should wait for the window size")
	}
}

func TestSpaceTogglesListening(t *testing.T) {
	ctl := &fakeController{}
	m := New(context.Background(), ctl, nil, nil, "")

	m = press(m, " ")
	if m.state != capture.StateListening || ctl.starts != 1 {
		t.Fatalf("after space: state=%v starts=%d", m.state, ctl.starts)
	}

	m = press(m, " ")
	if m.state != capture.StateIdle || ctl.stops != 1 {
		t.Fatalf("after second space: state=%v stops=%d", m.state, ctl.stops)
	}
}

func TestSpaceWhenUnsupported(t *testing.T) {
	ctl := &fakeController{state: capture.StateUnsupported}
	m := New(context.Background(), ctl, nil, nil, "")

	m, _ = applyUpdate(m, key(" "))
	if ctl.starts != 0 {
		t.Error("should not start an unsupported engine")
	}
	if !strings.Contains(m.errorMessage, "not available") {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}

	m, _ = applyUpdate(m, tea.WindowSizeMsg{Width: 80, Height: 24})
	if !strings.Contains(m.View(), "SPEECH UNAVAILABLE") {
		t.Error("view should show the unsupported condition")
	}
}

func TestTranscriptMsg(t *testing.T) {
	m := New(context.Background(), &fakeController{}, nil, nil, "")
	m, _ = applyUpdate(m, tea.WindowSizeMsg{Width: 80, Height: 24})

	m, _ = applyUpdate(m, TranscriptMsg{IdeaID: "x", Segments: []models.TranscriptSegment{
		{ID: "segment-0", Text: "hola mundo", Timestamp: 1},
	}})

	if m.ideaID != "x" {
		t.Errorf("ideaID = %q", m.ideaID)
	}
	if !strings.Contains(m.View(), "hola mundo") {
		t.Error("view should show the transcript")
	}
}

func TestTranscriptIsTrimmedToHeight(t *testing.T) {
	m := New(context.Background(), &fakeController{}, nil, nil, "")
	m, _ = applyUpdate(m, tea.WindowSizeMsg{Width: 80, Height: 10})

	var segs []models.TranscriptSegment
	for i := range 50 {
		segs = append(segs, models.TranscriptSegment{ID: fmt.Sprint(i), Text: fmt.Sprintf("line-%02d", i)})
	}
	m, _ = applyUpdate(m, TranscriptMsg{Segments: segs})

	view := m.View()
	if strings.Contains(view, "line-00") || !strings.Contains(view, "line-49") {
		t.Error("view should keep the most recent lines")
	}
}

func TestClear(t *testing.T) {
	ctl := &fakeController{segments: []models.TranscriptSegment{{Text: "x"}}}
	m := New(context.Background(), ctl, nil, nil, "")
	s := sampleSchema()
	m.schema = &s

	m = press(m, "c")
	if ctl.clears != 1 {
		t.Error("clear should reach the controller")
	}
	if m.schema != nil {
		t.Error("clear should drop the generated schema")
	}
}

func TestGenerateAndSaveAsNewIdea(t *testing.T) {
	repo := ideas.NewRepository(testutil.NewTempStore(t))
	ctl := &fakeController{segments: []models.TranscriptSegment{{ID: "segment-0", Text: "planificar recetas"}}}
	m := New(context.Background(), ctl, stubGenerator(sampleSchema(), nil), repo, "")

	m, cmd := applyUpdate(m, key("g"))
	if !m.generating || cmd == nil {
		t.Fatal("g should start generating")
	}
	m, _ = applyUpdate(m, key("g"))
	if !m.generating {
		t.Fatal("second g while generating should be ignored")
	}

	m, _ = applyUpdate(m, cmd())
	if m.generating || m.schema == nil || m.schema.ProjectTitle != "Recipe Planner" {
		t.Fatalf("schema not applied: %+v", m.schema)
	}

	m = press(m, "s")
	list := repo.List()
	if len(list) != 1 || list[0].Title != "Recipe Planner" || list[0].Transcript() != "planificar recetas" {
		t.Fatalf("saved ideas = %+v", list)
	}
	if !strings.Contains(m.status, list[0].ID) {
		t.Errorf("status = %q", m.status)
	}
}

func TestSaveAttachesToBoundIdea(t *testing.T) {
	repo := ideas.NewRepository(testutil.NewTempStore(t))
	idea, _ := repo.Create("Bound", "old", nil)
	ctl := &fakeController{ideaID: idea.ID}
	m := New(context.Background(), ctl, nil, repo, "Bound")
	s := sampleSchema()
	m.schema = &s

	m = press(m, "s")
	got, _ := repo.Get(idea.ID)
	if !strings.Contains(got.Description, "# Recipe Planner") {
		t.Errorf("description = %q", got.Description)
	}
	if !strings.Contains(m.status, "attached") {
		t.Errorf("status = %q", m.status)
	}
}

func TestGenerateErrorShowsMessage(t *testing.T) {
	gen := stubGenerator(models.GeneratedSchema{}, fmt.Errorf("no key: %w", models.ErrConfiguration))
	m := New(context.Background(), &fakeController{}, gen, nil, "")

	m = press(m, "g")
	if m.generating {
		t.Error("generating should reset after an error")
	}
	if m.schema != nil {
		t.Error("no schema on error")
	}
	if !strings.Contains(m.errorMessage, "API key") {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}

	m, _ = applyUpdate(m, ClearErrorMsg{})
	if m.errorMessage != "" {
		t.Error("error should clear")
	}
}

func TestStartErrorIsReported(t *testing.T) {
	m := New(context.Background(), &fakeController{}, nil, nil, "")
	m, _ = applyUpdate(m, StateMsg{State: capture.StateIdle, Err: errors.New("boom")})
	if !strings.Contains(m.errorMessage, "boom") {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}
}

func TestQuitStopsCapture(t *testing.T) {
	m := New(context.Background(), &fakeController{}, nil, nil, "")
	_, cmd := applyUpdate(m, key("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
}
