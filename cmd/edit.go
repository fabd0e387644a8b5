package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/voice-schema/internal/models"
)

var (
	editTitle       string
	editDescription string
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change an idea's title or description",
	Long: `Update the title and/or description of an idea.

Examples:
  vschema edit 3f2a --title "Meal planner"
  vschema edit 3f2a --description "Plan a week of meals from the fridge"`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().StringVar(&editTitle, "title", "", "New title")
	editCmd.Flags().StringVar(&editDescription, "description", "", "New description")
}

func runEdit(cmd *cobra.Command, args []string) error {
	var patch models.IdeaPatch
	if cmd.Flags().Changed("title") {
		patch.Title = models.StringPtr(editTitle)
	}
	if cmd.Flags().Changed("description") {
		patch.Description = models.StringPtr(editDescription)
	}
	if patch.Title == nil && patch.Description == nil {
		return fmt.Errorf("nothing to change, use --title or --description: %w", models.ErrInput)
	}

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	id, err := resolveID(ws.repo, args[0])
	if err != nil {
		return err
	}
	if _, err := ws.repo.Update(id, patch); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated idea %s\n", shortID(id))
	return nil
}
