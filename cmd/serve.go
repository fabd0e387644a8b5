package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/pders01/voice-schema/internal/config"
	"github.com/pders01/voice-schema/internal/logging"
	"github.com/pders01/voice-schema/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the idea library and schema generation over HTTP",
	Long: `Start the HTTP API used by browser front ends.

Routes live under /api: ideas CRUD, transcript append, tags, search,
schema generation and markdown export. CORS origins come from
server.allowed_origins.

Examples:
  vschema serve
  vschema serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !config.GetDebug() {
		gin.SetMode(gin.ReleaseMode)
	}

	addr := serveAddr
	if addr == "" {
		addr = config.GetServerAddr()
	}

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	srv := server.New(server.Config{
		Addr:           addr,
		AllowedOrigins: config.GetAllowedOrigins(),
	}, ws.repo, newGenerator(ws.store), logging.Logger)

	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s (Ctrl+C to stop)\n", addr)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
