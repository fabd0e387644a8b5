package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/voice-schema/internal/models"
)

var (
	newDescription string
	newTags        []string
	newTranscript  string
	newNoEmbed     bool
)

var newCmd = &cobra.Command{
	Use:   "new <title>",
	Short: "Create a new idea",
	Long: `Create an idea in the local library.

The title is required; description, tags and an initial transcript are
optional. When embeddings are enabled the related-ideas index is refreshed.

Examples:
  vschema new "Recipe planner"
  vschema new "Recipe planner" --tag food --tag mobile
  vschema new "Recipe planner" --transcript "una app para planificar recetas"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNew,
}

func init() {
	rootCmd.AddCommand(newCmd)

	newCmd.Flags().StringVarP(&newDescription, "description", "d", "", "Idea description")
	newCmd.Flags().StringSliceVar(&newTags, "tag", []string{}, "Add tags")
	newCmd.Flags().StringVar(&newTranscript, "transcript", "", "Initial transcript text")
	newCmd.Flags().BoolVar(&newNoEmbed, "no-embed", false, "Skip embedding refresh")
}

func runNew(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	title := strings.Join(args, " ")

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	var segments []models.TranscriptSegment
	if text := strings.TrimSpace(newTranscript); text != "" {
		segments = append(segments, models.TranscriptSegment{
			ID:        "segment-0",
			Text:      text,
			Timestamp: time.Now().UnixMilli(),
		})
	}

	idea, err := ws.repo.Create(title, newDescription, segments)
	if err != nil {
		return err
	}
	for _, tag := range newTags {
		if err := ws.repo.AddTag(idea.ID, tag); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "✓ Created idea %s\n", shortID(idea.ID))
	fmt.Fprintf(out, "  ID:    %s\n", idea.ID)
	fmt.Fprintf(out, "  Title: %s\n", idea.Title)
	if len(newTags) > 0 {
		fmt.Fprintf(out, "  Tags:  %v\n", newTags)
	}

	if !newNoEmbed {
		refreshEmbeddings(commandContext(cmd), ws, out)
	}
	return nil
}
