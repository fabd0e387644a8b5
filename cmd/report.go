package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/voice-schema/internal/embeddings"
	"github.com/pders01/voice-schema/internal/logging"
)

var reportCmd = &cobra.Command{
	Use:   "report <template>",
	Short: "Generate pre-defined reports",
	Long: `Generate formatted reports using pre-defined templates.

Available templates:
  daily   - Today's ideas grouped by tag with summary stats

Examples:
  vschema report daily`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	template := args[0]

	switch template {
	case "daily":
		return generateDailyReport(cmd, time.Now())
	default:
		return fmt.Errorf("unknown report template: %s (available: daily)", template)
	}
}

func generateDailyReport(cmd *cobra.Command, day time.Time) error {
	out := cmd.OutOrStdout()

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	all := ws.repo.List()

	fmt.Fprintln(out, "Daily Idea Report")
	fmt.Fprintln(out, "═════════════════")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Summary")
	fmt.Fprintln(out, "───────")
	if len(all) == 0 {
		fmt.Fprintln(out, "No ideas found")
		return nil
	}
	printStats(out, collectStats(all, ws.repo.TagCounts(), embeddings.Load(ws.store, logging.Logger)))

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Today's Ideas by Tag")
	fmt.Fprintln(out, "────────────────────")

	date := day.Format("2006-01-02")
	var today []ideaSummary
	for _, idea := range all {
		if idea.Updated().Format("2006-01-02") == date {
			today = append(today, summarize(idea))
		}
	}
	if len(today) == 0 {
		fmt.Fprintln(out, "No ideas touched today")
		return nil
	}
	printGroupedByTag(out, today)
	return nil
}
