package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/voice-schema/internal/models"
	"github.com/pders01/voice-schema/internal/store"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the generation API key",
	Long: `Store, inspect or remove the API key used for schema generation.

The key is kept in the local store and sent as a bearer credential.

Examples:
  vschema key set sk-...
  echo sk-... | vschema key set
  vschema key show
  vschema key clear`,
}

var keySetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Store the API key (reads stdin when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runKeySet,
}

var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored API key, masked",
	Args:  cobra.NoArgs,
	RunE:  runKeyShow,
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored API key",
	Args:  cobra.NoArgs,
	RunE:  runKeyClear,
}

func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(keySetCmd, keyShowCmd, keyClearCmd)
}

func runKeySet(cmd *cobra.Command, args []string) error {
	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read key from stdin: %w", err)
		}
		key = line
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("key is empty: %w", models.ErrInput)
	}

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := store.SetCredential(ws.store, key); err != nil {
		return fmt.Errorf("failed to store key: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ API key stored")
	return nil
}

func runKeyShow(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	key := store.Credential(ws.store)
	if key == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "No API key configured")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), maskKey(key))
	return nil
}

func runKeyClear(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := store.SetCredential(ws.store, ""); err != nil {
		return fmt.Errorf("failed to clear key: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ API key removed")
	return nil
}

// maskKey keeps the last four characters visible
func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
