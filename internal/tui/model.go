// Package tui is the interactive dictation screen.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/voice-schema/internal/capture"
	"github.com/pders01/voice-schema/internal/ideas"
	"github.com/pders01/voice-schema/internal/models"
	"github.com/pders01/voice-schema/internal/schema"
)

const errorTimeout = 5 * time.Second

// Controller is the capture session the screen drives.
type Controller interface {
	Start() error
	Stop()
	Clear()
	State() capture.State
	Segments() []models.TranscriptSegment
	BoundIdea() string
}

// Model is the root bubbletea model
type Model struct {
	ctl  Controller
	gen  schema.Generator
	repo *ideas.Repository
	ctx  context.Context

	state     capture.State
	segments  []models.TranscriptSegment
	ideaID    string
	ideaTitle string

	generating bool
	schema     *models.GeneratedSchema
	status     string

	errorMessage string

	width  int
	height int
}

// New creates the model. ideaTitle labels the bound idea, if any.
func New(ctx context.Context, ctl Controller, gen schema.Generator, repo *ideas.Repository, ideaTitle string) Model {
	return Model{
		ctl:       ctl,
		gen:       gen,
		repo:      repo,
		ctx:       ctx,
		state:     ctl.State(),
		segments:  ctl.Segments(),
		ideaID:    ctl.BoundIdea(),
		ideaTitle: ideaTitle,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Engine calls may notify subscribers that feed this program, so they run
// as commands, never inside Update.

func startCmd(ctl Controller) tea.Cmd {
	return func() tea.Msg {
		err := ctl.Start()
		return StateMsg{State: ctl.State(), Err: err}
	}
}

func stopCmd(ctl Controller) tea.Cmd {
	return func() tea.Msg {
		ctl.Stop()
		return StateMsg{State: ctl.State()}
	}
}

func clearCmd(ctl Controller) tea.Cmd {
	return func() tea.Msg {
		ctl.Clear()
		return nil
	}
}

func generateCmd(ctx context.Context, gen schema.Generator, transcript string) tea.Cmd {
	return func() tea.Msg {
		s, err := gen.Generate(ctx, transcript)
		return SchemaMsg{Schema: s, Err: err}
	}
}

// saveCmd attaches the schema to the bound idea, or creates a new idea.
func saveCmd(repo *ideas.Repository, ideaID string, s models.GeneratedSchema, segments []models.TranscriptSegment) tea.Cmd {
	return func() tea.Msg {
		if ideaID != "" {
			return SavedMsg{IdeaID: ideaID, Attached: true, Err: repo.AttachSchema(ideaID, s)}
		}
		idea, err := repo.CreateFromSchema(s, segments)
		return SavedMsg{IdeaID: idea.ID, Err: err}
	}
}

func clearErrorCmd() tea.Cmd {
	return tea.Tick(errorTimeout, func(time.Time) tea.Msg {
		return ClearErrorMsg{}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TranscriptMsg:
		m.segments = msg.Segments
		if msg.IdeaID != "" {
			m.ideaID = msg.IdeaID
		}
		return m, nil

	case StateMsg:
		m.state = msg.State
		if msg.Err != nil {
			return m.fail(msg.Err)
		}
		return m, nil

	case SchemaMsg:
		m.generating = false
		if msg.Err != nil {
			return m.fail(msg.Err)
		}
		m.schema = &msg.Schema
		m.status = "Schema ready: " + msg.Schema.ProjectTitle
		return m, nil

	case SavedMsg:
		if msg.Err != nil {
			return m.fail(msg.Err)
		}
		if msg.Attached {
			m.status = "Schema attached to idea " + msg.IdeaID
		} else {
			m.status = "Saved as idea " + msg.IdeaID
		}
		return m, nil

	case ClearErrorMsg:
		m.errorMessage = ""
		return m, nil
	}

	return m, nil
}

func (m Model) fail(err error) (tea.Model, tea.Cmd) {
	m.errorMessage = models.UserMessage(err)
	return m, clearErrorCmd()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Sequence(stopCmd(m.ctl), tea.Quit)

	case " ", "space":
		switch m.state {
		case capture.StateUnsupported:
			return m.fail(models.ErrRecognitionUnsupported)
		case capture.StateListening:
			return m, stopCmd(m.ctl)
		default:
			return m, startCmd(m.ctl)
		}

	case "c":
		m.schema = nil
		m.status = ""
		return m, clearCmd(m.ctl)

	case "g":
		if m.generating {
			return m, nil
		}
		m.generating = true
		m.status = "Generating schema..."
		return m, generateCmd(m.ctx, m.gen, schema.Transcript(m.segments))

	case "s":
		if m.schema == nil || m.repo == nil {
			return m, nil
		}
		return m, saveCmd(m.repo, m.ideaID, *m.schema, m.segments)
	}

	return m, nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, dividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderTranscript())
	if m.schema != nil {
		sections = append(sections, dividerStyle.Render(strings.Repeat("─", m.width)))
		sections = append(sections, m.renderSchema())
	}
	sections = append(sections, dividerStyle.Render(strings.Repeat("─", m.width)))
	if m.errorMessage != "" {
		sections = append(sections, errorStyle.Render("✗ "+m.errorMessage))
	}
	if m.status != "" {
		sections = append(sections, dimStyle.Render(m.status))
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	var indicator string
	switch m.state {
	case capture.StateListening:
		indicator = listeningStyle.Render("● LISTENING")
	case capture.StateUnsupported:
		indicator = errorStyle.Render("✗ SPEECH UNAVAILABLE")
	default:
		indicator = idleStyle.Render("○ IDLE")
	}

	header := titleStyle.Render("VOICE SCHEMA") + "  " + indicator
	if m.ideaTitle != "" {
		header += dimStyle.Render("  idea: " + m.ideaTitle)
	}
	if m.generating {
		header += "  " + busyStyle.Render("⟳ generating")
	}
	return header
}

// transcriptLines is the number of rows left for the transcript.
func (m Model) transcriptLines() int {
	reserved := 6
	if m.schema != nil {
		reserved += 4 + len(m.schema.Sections)
	}
	return max(3, m.height-reserved)
}

func (m Model) renderTranscript() string {
	if m.state == capture.StateUnsupported && len(m.segments) == 0 {
		return dimStyle.Render("  " + models.UserMessage(models.ErrRecognitionUnsupported))
	}
	if len(m.segments) == 0 {
		return dimStyle.Render("  Press space and start talking...")
	}

	var lines []string
	for _, seg := range m.segments {
		ts := time.UnixMilli(seg.Timestamp).Format("15:04:05")
		lines = append(lines, dimStyle.Render(ts)+" "+textStyle.Render(seg.Text))
	}
	if limit := m.transcriptLines(); len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderSchema() string {
	s := m.schema
	lines := []string{readyStyle.Render(s.ProjectTitle), dimStyle.Render(s.Description)}
	for _, sec := range s.Sections {
		lines = append(lines, fmt.Sprintf("  %s %s", textStyle.Render(sec.Title), dimStyle.Render("("+string(sec.Priority)+")")))
	}
	if len(s.TechStack) > 0 {
		lines = append(lines, dimStyle.Render("  stack: "+strings.Join(s.TechStack, ", ")))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	keys := []struct{ key, desc string }{
		{"space", "start/stop"},
		{"c", "clear"},
		{"g", "generate"},
	}
	if m.schema != nil {
		keys = append(keys, struct{ key, desc string }{"s", "save"})
	}
	keys = append(keys, struct{ key, desc string }{"q", "quit"})

	var parts []string
	for _, k := range keys {
		parts = append(parts, footerKeyStyle.Render(k.key)+" "+dimStyle.Render(k.desc))
	}
	return strings.Join(parts, "  ")
}
