package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/voice-schema/internal/capture"
	"github.com/pders01/voice-schema/internal/config"
	"github.com/pders01/voice-schema/internal/logging"
	"github.com/pders01/voice-schema/internal/session"
	"github.com/pders01/voice-schema/internal/speech"
	"github.com/pders01/voice-schema/internal/tui"
)

var (
	dictateIdea   string
	dictateNew    string
	dictatePlain  bool
	dictateLocale string
)

var dictateCmd = &cobra.Command{
	Use:   "dictate",
	Short: "Dictate an idea",
	Long: `Capture speech continuously and show the transcript as it grows.

Recognition runs through the local speech daemon (speech.socket) and
restarts on its own after pauses and errors until you stop it. While an
idea is bound, every finalized segment is appended to it.

Keys (interactive mode):
  space  start/stop listening
  c      clear the transcript
  g      generate a schema from the transcript
  s      save the schema (attach to the bound idea or create a new one)
  q      quit

Examples:
  vschema dictate
  vschema dictate --new "Recipe planner"
  vschema dictate --idea 3f2a
  vschema dictate --plain --locale en-US`,
	Args: cobra.NoArgs,
	RunE: runDictate,
}

func init() {
	rootCmd.AddCommand(dictateCmd)

	dictateCmd.Flags().StringVar(&dictateIdea, "idea", "", "Continue dictating into this idea")
	dictateCmd.Flags().StringVar(&dictateNew, "new", "", "Create an idea with this title and dictate into it")
	dictateCmd.Flags().BoolVar(&dictatePlain, "plain", false, "Print segments as plain lines instead of the interactive view")
	dictateCmd.Flags().StringVar(&dictateLocale, "locale", "", "Recognition language (default from speech.locale)")
}

func captureConfig() capture.Config {
	cfg := capture.Config{
		Locale:          config.GetSpeechLocale(),
		RestartDelay:    config.GetRestartDelay(),
		ErrorRetryDelay: config.GetErrorRetryDelay(),
	}
	if dictateLocale != "" {
		cfg.Locale = dictateLocale
	}
	return cfg
}

func runDictate(cmd *cobra.Command, args []string) error {
	if dictateIdea != "" && dictateNew != "" {
		return fmt.Errorf("use either --idea or --new, not both")
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	rec := speech.NewRecognizer(config.GetSpeechSocket(), logging.Logger)
	engine := capture.New(ctx, rec, captureConfig(), capture.WithLogger(logging.Logger))
	defer engine.Stop()

	coord := session.New(engine, ws.repo, logging.Logger)
	defer coord.Close()

	var title string
	switch {
	case dictateIdea != "":
		id, err := resolveID(ws.repo, dictateIdea)
		if err != nil {
			return err
		}
		idea, err := coord.Open(id)
		if err != nil {
			return err
		}
		title = idea.Title
	case dictateNew != "":
		idea, err := ws.repo.Create(dictateNew, "", nil)
		if err != nil {
			return err
		}
		if err := coord.Bind(idea.ID); err != nil {
			return err
		}
		title = idea.Title
	}

	if dictatePlain {
		return dictatePlainText(ctx, coord, cmd.OutOrStdout(), title)
	}
	return dictateInteractive(ctx, coord, ws, title)
}

func dictateInteractive(ctx context.Context, coord *session.Coordinator, ws *workspace, title string) error {
	model := tui.New(ctx, coord, newGenerator(ws.store), ws.repo, title)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	// Subscribed only now: Send blocks until the program's event loop runs.
	unsubscribe := coord.Subscribe(func(u session.Update) {
		p.Send(tui.TranscriptMsg{IdeaID: u.IdeaID, Segments: u.Segments})
	})
	defer unsubscribe()

	_, err := p.Run()
	coord.Stop()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("dictation view failed: %w", err)
	}
	return nil
}

func dictatePlainText(ctx context.Context, coord *session.Coordinator, out io.Writer, title string) error {
	printed := len(coord.Segments())
	unsubscribe := coord.Subscribe(func(u session.Update) {
		if len(u.Segments) < printed {
			// cleared
			printed = 0
		}
		for _, seg := range u.Segments[printed:] {
			fmt.Fprintln(out, seg.Text)
		}
		printed = len(u.Segments)
	})
	defer unsubscribe()

	if err := coord.Start(); err != nil {
		return err
	}
	if title != "" {
		fmt.Fprintf(out, "Dictating into %q (Ctrl+C to stop)\n", title)
	} else {
		fmt.Fprintln(out, "Listening (Ctrl+C to stop)")
	}

	<-ctx.Done()
	coord.Stop()

	segments := coord.Segments()
	fmt.Fprintf(out, "\n✓ Captured %d segment(s)\n", len(segments))
	if id := coord.BoundIdea(); id != "" {
		fmt.Fprintf(out, "  Saved to idea %s\n", shortID(id))
	}
	return nil
}
