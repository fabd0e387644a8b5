package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/voice-schema/internal/embeddings"
	"github.com/pders01/voice-schema/internal/models"
)

var (
	relatedLimit int
	relatedJSON  bool
	relatedToon  bool
)

var relatedCmd = &cobra.Command{
	Use:   "related <id>",
	Short: "Find related ideas",
	Long: `Find ideas related to a given idea based on:
  - Semantic similarity of title, description, transcript and tags
    (when embeddings are enabled and Ollama is running)
  - Shared tags otherwise

Results are ranked by relevance.

Example:
  vschema related 3f2a
  vschema related 3f2a --limit 3 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runRelated,
}

func init() {
	rootCmd.AddCommand(relatedCmd)

	relatedCmd.Flags().IntVar(&relatedLimit, "limit", 5, "Maximum number of results")
	relatedCmd.Flags().BoolVar(&relatedJSON, "json", false, "Output as JSON")
	relatedCmd.Flags().BoolVar(&relatedToon, "toon", false, "Output in LLM-friendly toon format")
}

type relatedIdea struct {
	Idea   ideaSummary `json:"idea"`
	Score  float64     `json:"score"`
	Reason string      `json:"reason"`
}

func runRelated(cmd *cobra.Command, args []string) error {
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
	target, err := ws.repo.Get(id)
	if err != nil {
		return err
	}

	index := refreshEmbeddings(commandContext(cmd), ws, cmd.ErrOrStderr())

	var related []relatedIdea
	matches, err := index.Related(id, relatedLimit)
	switch {
	case err == nil && len(matches) > 0:
		related = semanticMatches(ws, matches)
	case err == nil, errors.Is(err, embeddings.ErrNotIndexed):
		related = tagMatches(target, ws.repo.List(), relatedLimit)
	default:
		return err
	}

	if done, err := writeStructured(out, related, relatedJSON, relatedToon); done {
		return err
	}

	if len(related) == 0 {
		fmt.Fprintln(out, "No related ideas found")
		return nil
	}

	fmt.Fprintf(out, "Found %d related idea(s) for %s:\n\n", len(related), target.Title)
	for i, r := range related {
		fmt.Fprintf(out, "%d. %s  %s [score: %.2f]\n", i+1, shortID(r.Idea.ID), r.Idea.Title, r.Score)
		fmt.Fprintf(out, "   Relationship: %s\n", r.Reason)
		fmt.Fprintf(out, "   Updated: %s\n", r.Idea.Updated.Format("2006-01-02 15:04"))
		if len(r.Idea.Tags) > 0 {
			fmt.Fprintf(out, "   Tags:    %v\n", r.Idea.Tags)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func semanticMatches(ws *workspace, matches []embeddings.Match) []relatedIdea {
	related := make([]relatedIdea, 0, len(matches))
	for _, m := range matches {
		idea, err := ws.repo.Get(m.ID)
		if err != nil {
			continue
		}
		related = append(related, relatedIdea{
			Idea:   summarize(idea),
			Score:  m.Score,
			Reason: "semantic similarity",
		})
	}
	return related
}

// tagMatches ranks ideas by the number of tags they share with target
func tagMatches(target models.Idea, all []models.Idea, limit int) []relatedIdea {
	related := []relatedIdea{}
	for _, idea := range all {
		if idea.ID == target.ID {
			continue
		}
		var shared []string
		for _, tag := range idea.Tags {
			if target.HasTag(tag) {
				shared = append(shared, tag)
			}
		}
		if len(shared) == 0 {
			continue
		}
		related = append(related, relatedIdea{
			Idea:   summarize(idea),
			Score:  float64(len(shared)),
			Reason: "shared tags: " + strings.Join(shared, ", "),
		})
	}

	sort.SliceStable(related, func(i, j int) bool {
		return related[i].Score > related[j].Score
	})
	if limit > 0 && len(related) > limit {
		related = related[:limit]
	}
	return related
}
