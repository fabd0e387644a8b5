package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/voice-schema/internal/config"
)

var (
	pruneDryRun bool
	pruneForce  bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old completed ideas based on retention policy",
	Long: `Remove completed ideas not updated within the retention period.

The retention policy is configured in ~/.config/vschema/config.toml:
  [retention]
  days = 90
  preserve_tags = ["important"]

Open ideas and ideas with preserve tags are never pruned.

Example:
  vschema prune              # Show what would be pruned
  vschema prune --force      # Actually prune ideas`,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", true, "Show what would be pruned without deleting")
	pruneCmd.Flags().BoolVar(&pruneForce, "force", false, "Actually delete ideas (overrides dry-run)")
}

func runPrune(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	retentionDays := config.GetRetentionDays()
	preserveTags := config.GetPreserveTags()
	cutoffDate := time.Now().AddDate(0, 0, -retentionDays)

	fmt.Fprintf(out, "Retention policy: %d days\n", retentionDays)
	fmt.Fprintf(out, "Preserve tags: %v\n", preserveTags)
	fmt.Fprintf(out, "Cutoff date: %s\n\n", cutoffDate.Format("2006-01-02"))

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	dryRun := !pruneForce
	removed, err := ws.repo.Prune(cutoffDate, preserveTags, dryRun)
	if err != nil {
		return err
	}

	if len(removed) == 0 {
		fmt.Fprintln(out, "No ideas to prune")
		return nil
	}

	verb := "to prune"
	if !dryRun {
		verb = "pruned"
	}
	fmt.Fprintf(out, "Ideas %s (%d):\n\n", verb, len(removed))
	for _, idea := range removed {
		fmt.Fprintf(out, "  %s  %s\n", shortID(idea.ID), idea.Title)
		fmt.Fprintf(out, "    Age:  %s\n", formatDuration(time.Since(idea.Updated())))
		if len(idea.Tags) > 0 {
			fmt.Fprintf(out, "    Tags: %v\n", idea.Tags)
		}
		fmt.Fprintln(out)
	}

	if dryRun {
		fmt.Fprintln(out, "This is a dry run. Use --force to actually prune ideas.")
		return nil
	}

	// Drop embeddings of the removed ideas
	refreshEmbeddings(commandContext(cmd), ws, out)
	fmt.Fprintf(out, "✓ Pruned %d idea(s)\n", len(removed))
	return nil
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days == 0 {
		return "< 1 day"
	}
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
