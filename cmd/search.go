package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/voice-schema/internal/ideas"
)

var (
	searchTag  string
	searchJSON bool
	searchToon bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search ideas by title, description or tag",
	Long: `Search the idea library. A match is a case-insensitive substring of
the title, the description or any tag. Library order is preserved.

Examples:
  vschema search recetas
  vschema search "meal plan" --tag mobile`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchTag, "tag", "", "Restrict to ideas with tag")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output as JSON")
	searchCmd.Flags().BoolVar(&searchToon, "toon", false, "Output in LLM-friendly toon format")
}

func runSearch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	query := args[0]

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	matches := ws.repo.Search(query)
	if searchTag != "" {
		matches = ideas.Filter(ws.repo.ByTag(searchTag), query)
	}

	summaries := make([]ideaSummary, 0, len(matches))
	for _, idea := range matches {
		summaries = append(summaries, summarize(idea))
	}

	if done, err := writeStructured(out, summaries, searchJSON, searchToon); done {
		return err
	}

	if len(summaries) == 0 {
		fmt.Fprintf(out, "No ideas match %q\n", query)
		return nil
	}

	fmt.Fprintf(out, "Found %d idea(s) matching %q:\n\n", len(summaries), query)
	for _, s := range summaries {
		printSummary(out, s, "  ")
	}
	return nil
}
