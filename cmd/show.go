package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	showJSON bool
	showToon bool
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an idea with its transcript",
	Long: `Display an idea: title, description, tags, completion state and the
full transcript. The id may be shortened to any unique prefix.

Examples:
  vschema show 3f2a
  vschema show 3f2a --json`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output as JSON")
	showCmd.Flags().BoolVar(&showToon, "toon", false, "Output in LLM-friendly toon format")
}

func runShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	id, err := resolveID(ws.repo, args[0])
	if err != nil {
		return err
	}
	idea, err := ws.repo.Get(id)
	if err != nil {
		return err
	}

	if done, err := writeStructured(out, idea, showJSON, showToon); done {
		return err
	}

	status := "open"
	if idea.IsCompleted {
		status = "completed"
	}

	fmt.Fprintf(out, "%s\n", idea.Title)
	fmt.Fprintf(out, "  ID:      %s\n", idea.ID)
	fmt.Fprintf(out, "  Status:  %s\n", status)
	fmt.Fprintf(out, "  Created: %s\n", idea.Created().Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "  Updated: %s\n", idea.Updated().Format("2006-01-02 15:04"))
	if len(idea.Tags) > 0 {
		fmt.Fprintf(out, "  Tags:    %v\n", idea.Tags)
	}
	if idea.Description != "" {
		fmt.Fprintf(out, "\nDescription:\n%s\n", idea.Description)
	}
	if len(idea.TranscriptSegments) > 0 {
		fmt.Fprintf(out, "\nTranscript (%d segment(s)):\n", len(idea.TranscriptSegments))
		for _, seg := range idea.TranscriptSegments {
			fmt.Fprintf(out, "  %s\n", seg.Text)
		}
	}
	return nil
}
