package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/voice-schema/internal/embeddings"
	"github.com/pders01/voice-schema/internal/ideas"
	"github.com/pders01/voice-schema/internal/logging"
	"github.com/pders01/voice-schema/internal/models"
	"github.com/pders01/voice-schema/internal/schema"
)

var (
	statsJSON bool
	statsToon bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show idea library statistics",
	Long: `Display statistics about your ideas including:
  - Total, open and completed counts
  - Transcript volume
  - Tag usage statistics
  - Timeline distribution
  - Embedding coverage

Examples:
  vschema stats
  vschema stats --json
  vschema stats --toon`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
	statsCmd.Flags().BoolVar(&statsToon, "toon", false, "Output in LLM-friendly toon format")
}

type libraryStats struct {
	TotalIdeas        int              `json:"total_ideas"`
	OpenIdeas         int              `json:"open_ideas"`
	CompletedIdeas    int              `json:"completed_ideas"`
	TotalSegments     int              `json:"total_segments"`
	TotalWords        int              `json:"total_words"`
	WithSchema        int              `json:"with_schema"`
	WithEmbeddings    int              `json:"with_embeddings"`
	WithoutEmbeddings int              `json:"without_embeddings"`
	OldestIdea        *time.Time       `json:"oldest_idea,omitempty"`
	NewestIdea        *time.Time       `json:"newest_idea,omitempty"`
	TopTags           []ideas.TagCount `json:"top_tags"`
	DailyActivity     []dailyActivity  `json:"daily_activity"`
}

type dailyActivity struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

func collectStats(all []models.Idea, tags []ideas.TagCount, index *embeddings.Index) *libraryStats {
	stats := &libraryStats{
		TotalIdeas:    len(all),
		TopTags:       tags,
		DailyActivity: []dailyActivity{},
	}

	byDate := make(map[string]int)
	for _, idea := range all {
		created := idea.Created()
		if stats.OldestIdea == nil || created.Before(*stats.OldestIdea) {
			stats.OldestIdea = &created
		}
		if stats.NewestIdea == nil || created.After(*stats.NewestIdea) {
			stats.NewestIdea = &created
		}

		if idea.IsCompleted {
			stats.CompletedIdeas++
		} else {
			stats.OpenIdeas++
		}

		stats.TotalSegments += len(idea.TranscriptSegments)
		stats.TotalWords += len(strings.Fields(idea.Transcript()))
		if _, err := schema.ParseDocument(idea.Description); err == nil {
			stats.WithSchema++
		}

		if index != nil && index.Has(idea.ID) {
			stats.WithEmbeddings++
		} else {
			stats.WithoutEmbeddings++
		}

		byDate[idea.Updated().Format("2006-01-02")]++
	}

	for date, count := range byDate {
		stats.DailyActivity = append(stats.DailyActivity, dailyActivity{Date: date, Count: count})
	}
	sort.Slice(stats.DailyActivity, func(i, j int) bool {
		return stats.DailyActivity[i].Date > stats.DailyActivity[j].Date
	})

	return stats
}

func runStats(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	all := ws.repo.List()
	stats := collectStats(all, ws.repo.TagCounts(), embeddings.Load(ws.store, logging.Logger))

	if done, err := writeStructured(out, stats, statsJSON, statsToon); done {
		return err
	}

	if stats.TotalIdeas == 0 {
		fmt.Fprintln(out, "No ideas found")
		return nil
	}

	printStats(out, stats)
	return nil
}

func printStats(out io.Writer, stats *libraryStats) {
	fmt.Fprintln(out, "Idea Statistics")
	fmt.Fprintln(out, "━━━━━━━━━━━━━━━")
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Total Ideas: %d\n", stats.TotalIdeas)
	if stats.OldestIdea != nil && stats.NewestIdea != nil {
		fmt.Fprintf(out, "Date Range:  %s to %s\n",
			stats.OldestIdea.Format("2006-01-02"),
			stats.NewestIdea.Format("2006-01-02"))
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "By Status:")
	for _, row := range []struct {
		label string
		count int
	}{{"open", stats.OpenIdeas}, {"completed", stats.CompletedIdeas}, {"with schema", stats.WithSchema}} {
		percentage := float64(row.count) / float64(stats.TotalIdeas) * 100
		fmt.Fprintf(out, "  %-15s %3d  (%.1f%%)\n", row.label, row.count, percentage)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Transcripts:")
	fmt.Fprintf(out, "  Segments: %d\n", stats.TotalSegments)
	fmt.Fprintf(out, "  Words:    %d\n", stats.TotalWords)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Embedding Coverage:")
	percentage := float64(stats.WithEmbeddings) / float64(stats.TotalIdeas) * 100
	fmt.Fprintf(out, "  With embeddings:    %3d  (%.1f%%)\n", stats.WithEmbeddings, percentage)
	fmt.Fprintf(out, "  Without embeddings: %3d  (%.1f%%)\n", stats.WithoutEmbeddings, 100-percentage)
	fmt.Fprintln(out)

	if len(stats.TopTags) > 0 {
		fmt.Fprintln(out, "Top Tags:")
		for _, ts := range stats.TopTags[:min(10, len(stats.TopTags))] {
			fmt.Fprintf(out, "  %-20s %3d\n", ts.Tag, ts.Count)
		}
		fmt.Fprintln(out)
	}

	if len(stats.DailyActivity) > 0 {
		fmt.Fprintln(out, "Recent Activity:")
		for _, da := range stats.DailyActivity[:min(7, len(stats.DailyActivity))] {
			bar := strings.Repeat("█", min(da.Count, 20))
			fmt.Fprintf(out, "  %s  %3d  %s\n", da.Date, da.Count, bar)
		}
	}
}
