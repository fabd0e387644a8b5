package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/voice-schema/internal/models"
	"github.com/pders01/voice-schema/internal/schema"
)

var (
	exportOutput string
	exportStdout bool
)

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export an idea's schema as a markdown document",
	Long: `Write the schema attached to an idea (see generate --attach or
generate --save) to a markdown file named after the project title.

Examples:
  vschema export 3f2a                  # ./recipe-planner-schema.md
  vschema export 3f2a --output docs/
  vschema export 3f2a --stdout`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", ".", "File or directory to write to")
	exportCmd.Flags().BoolVar(&exportStdout, "stdout", false, "Print the document instead of writing a file")
}

func runExport(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	id, err := resolveID(ws.repo, args[0])
	if err != nil {
		return err
	}
	idea, err := ws.repo.Get(id)
	if err != nil {
		return err
	}

	s, err := schema.ParseDocument(idea.Description)
	if err != nil {
		return fmt.Errorf("idea %s has no schema, run generate --idea %s --attach first: %w", shortID(id), shortID(id), models.ErrInput)
	}

	if exportStdout {
		fmt.Fprint(cmd.OutOrStdout(), schema.Render(s))
		return nil
	}

	path, err := writeDocument(exportOutput, s)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %s\n", path)
	return nil
}
