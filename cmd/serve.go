package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/conneroisu/abacus/internal/server"
	"github.com/conneroisu/abacus/internal/store"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the reference evaluation and history service",
	Long: `Start the reference evaluation service. It evaluates expressions,
records every successful evaluation and pushes a notification to websocket
subscribers whenever the history changes.

Examples:
  abacus serve                    # Serve on localhost:5000 with abacus.db
  abacus serve --port 8080        # Serve on another port
  abacus serve --memory           # Keep history in memory only`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 5000, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().String("database", "abacus.db", "SQLite database file")
	serveCmd.Flags().Bool("memory", false, "Keep history in memory instead of SQLite")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{
		"port":     "server.port",
		"host":     "server.host",
		"database": "server.database",
	})
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	var st store.Store
	if memory, _ := cmd.Flags().GetBool("memory"); memory {
		st = store.NewMemoryStore()
	} else {
		st, err = store.NewSQLiteStore(cfg.Server.Database)
		if err != nil {
			return err
		}
	}
	defer st.Close()

	srv, err := server.New(cfg, st, server.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Starting abacus at http://%s\n", cfg.Server.Addr())
	if err := srv.Start(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
