package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/voice-schema/internal/ideas"
)

var (
	tagsJSON   bool
	tagsToon   bool
	tagsRename string
)

var tagsCmd = &cobra.Command{
	Use:   "tags [old-tag]",
	Short: "List or manage tags",
	Long: `List all tags used across ideas with usage counts.
Optionally rename a tag across all ideas.

Examples:
  vschema tags                          # List all tags
  vschema tags add 3f2a mobile food     # Tag an idea
  vschema tags remove 3f2a food         # Untag an idea
  vschema tags food --rename cooking    # Rename tag everywhere`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTags,
}

var tagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags with usage counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTags(cmd, nil)
	},
}

var tagsAddCmd = &cobra.Command{
	Use:   "add <id> <tag>...",
	Short: "Add tags to an idea",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTagsAdd,
}

var tagsRemoveCmd = &cobra.Command{
	Use:   "remove <id> <tag>...",
	Short: "Remove tags from an idea",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTagsRemove,
}

func init() {
	rootCmd.AddCommand(tagsCmd)
	tagsCmd.AddCommand(tagsListCmd, tagsAddCmd, tagsRemoveCmd)

	tagsCmd.PersistentFlags().BoolVar(&tagsJSON, "json", false, "Output as JSON")
	tagsCmd.PersistentFlags().BoolVar(&tagsToon, "toon", false, "Output in LLM-friendly toon format")
	tagsCmd.Flags().StringVar(&tagsRename, "rename", "", "Rename tag to new value")
}

func runTags(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	// Handle rename mode
	if tagsRename != "" {
		if len(args) == 0 {
			return fmt.Errorf("tag name required for --rename")
		}
		n, err := ws.repo.RenameTag(args[0], tagsRename)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintf(out, "No ideas tagged %q\n", args[0])
			return nil
		}
		fmt.Fprintf(out, "✓ Renamed %q to %q on %d idea(s)\n", args[0], tagsRename, n)
		return nil
	}

	counts := ws.repo.TagCounts()
	if len(args) == 1 {
		counts = filterTag(counts, args[0])
	}

	if done, err := writeStructured(out, counts, tagsJSON, tagsToon); done {
		return err
	}

	if len(counts) == 0 {
		fmt.Fprintln(out, "No tags found")
		return nil
	}

	fmt.Fprintf(out, "Found %d tag(s):\n\n", len(counts))
	for _, tc := range counts {
		fmt.Fprintf(out, "  %-24s %d\n", tc.Tag, tc.Count)
	}
	return nil
}

func filterTag(counts []ideas.TagCount, tag string) []ideas.TagCount {
	for _, tc := range counts {
		if tc.Tag == tag {
			return []ideas.TagCount{tc}
		}
	}
	return []ideas.TagCount{}
}

func runTagsAdd(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	id, err := resolveID(ws.repo, args[0])
	if err != nil {
		return err
	}
	for _, tag := range args[1:] {
		if err := ws.repo.AddTag(id, tag); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Tagged %s with %v\n", shortID(id), args[1:])
	return nil
}

func runTagsRemove(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	id, err := resolveID(ws.repo, args[0])
	if err != nil {
		return err
	}
	for _, tag := range args[1:] {
		if err := ws.repo.RemoveTag(id, tag); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %v from %s\n", args[1:], shortID(id))
	return nil
}
