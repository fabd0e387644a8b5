package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Toggle an idea's completion state",
	Args:  cobra.ExactArgs(1),
	RunE:  runDone,
}

func init() {
	rootCmd.AddCommand(doneCmd)
}

func runDone(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	id, err := resolveID(ws.repo, args[0])
	if err != nil {
		return err
	}
	if _, err := ws.repo.ToggleCompletion(id); err != nil {
		return err
	}
	idea, err := ws.repo.Get(id)
	if err != nil {
		return err
	}

	if idea.IsCompleted {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s marked as completed\n", idea.Title)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s reopened\n", idea.Title)
	}
	return nil
}
