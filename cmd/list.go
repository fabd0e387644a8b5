package cmd

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/voice-schema/internal/models"
)

var (
	listTag       string
	listToday     bool
	listSince     string
	listCompleted bool
	listOpen      bool
	listGroupBy   string
	listJSON      bool
	listToon      bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List ideas",
	Long: `List ideas in the library with optional filtering.

Examples:
  vschema list
  vschema list --tag mobile
  vschema list --today
  vschema list --since 2026-10-01
  vschema list --open --group-by tag
  vschema list --toon`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listTag, "tag", "", "Filter by tag")
	listCmd.Flags().BoolVar(&listToday, "today", false, "Show only ideas updated today")
	listCmd.Flags().StringVar(&listSince, "since", "", "Show ideas updated since date (YYYY-MM-DD)")
	listCmd.Flags().BoolVar(&listCompleted, "completed", false, "Show only completed ideas")
	listCmd.Flags().BoolVar(&listOpen, "open", false, "Show only open ideas")
	listCmd.Flags().StringVar(&listGroupBy, "group-by", "", "Group output by: tag")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	listCmd.Flags().BoolVar(&listToon, "toon", false, "Output in LLM-friendly toon format")
}

// ideaSummary is the listing view of an idea
type ideaSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags"`
	Completed bool      `json:"completed"`
	Segments  int       `json:"segments"`
	Updated   time.Time `json:"updated"`
}

func summarize(idea models.Idea) ideaSummary {
	tags := idea.Tags
	if tags == nil {
		tags = []string{}
	}
	return ideaSummary{
		ID:        idea.ID,
		Title:     idea.Title,
		Tags:      tags,
		Completed: idea.IsCompleted,
		Segments:  len(idea.TranscriptSegments),
		Updated:   idea.Updated(),
	}
}

func runList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var since time.Time
	if listSince != "" {
		sinceDate, err := time.ParseInLocation("2006-01-02", listSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since date format (use YYYY-MM-DD): %w", err)
		}
		since = sinceDate
	}
	if listGroupBy != "" && listGroupBy != "tag" {
		return fmt.Errorf("unknown --group-by value: %s (available: tag)", listGroupBy)
	}

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	all := ws.repo.List()
	if listTag != "" {
		all = ws.repo.ByTag(listTag)
	}

	today := time.Now().Format("2006-01-02")
	summaries := []ideaSummary{}
	for _, idea := range all {
		if listCompleted && !idea.IsCompleted {
			continue
		}
		if listOpen && idea.IsCompleted {
			continue
		}
		if listToday && idea.Updated().Format("2006-01-02") != today {
			continue
		}
		if !since.IsZero() && idea.Updated().Before(since) {
			continue
		}
		summaries = append(summaries, summarize(idea))
	}

	// Newest first
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Updated.After(summaries[j].Updated)
	})

	if done, err := writeStructured(out, summaries, listJSON, listToon); done {
		return err
	}

	if len(summaries) == 0 {
		if len(all) == 0 {
			fmt.Fprintln(out, "No ideas found")
		} else {
			fmt.Fprintln(out, "No ideas match the filter criteria")
		}
		return nil
	}

	if listGroupBy == "tag" {
		printGroupedByTag(out, summaries)
		return nil
	}

	fmt.Fprintf(out, "Found %d idea(s):\n\n", len(summaries))
	for _, s := range summaries {
		printSummary(out, s, "  ")
	}
	return nil
}

func printSummary(out io.Writer, s ideaSummary, indent string) {
	mark := " "
	if s.Completed {
		mark = "✓"
	}
	fmt.Fprintf(out, "%s[%s] %s  %s\n", indent, mark, shortID(s.ID), s.Title)
	fmt.Fprintf(out, "%s    Updated:  %s\n", indent, s.Updated.Format("2006-01-02 15:04"))
	if s.Segments > 0 {
		fmt.Fprintf(out, "%s    Segments: %d\n", indent, s.Segments)
	}
	if len(s.Tags) > 0 {
		fmt.Fprintf(out, "%s    Tags:     %v\n", indent, s.Tags)
	}
	fmt.Fprintln(out)
}

func printGroupedByTag(out io.Writer, summaries []ideaSummary) {
	groups := make(map[string][]ideaSummary)
	for _, s := range summaries {
		if len(s.Tags) == 0 {
			groups["(untagged)"] = append(groups["(untagged)"], s)
			continue
		}
		for _, tag := range s.Tags {
			groups[tag] = append(groups[tag], s)
		}
	}

	tags := make([]string, 0, len(groups))
	for tag := range groups {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		fmt.Fprintf(out, "%s (%d)\n", tag, len(groups[tag]))
		for _, s := range groups[tag] {
			printSummary(out, s, "  ")
		}
	}
}
