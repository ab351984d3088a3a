package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sootlabs/soot/internal/config"
	"github.com/sootlabs/soot/internal/gateway"
	"github.com/sootlabs/soot/internal/github"
	"github.com/sootlabs/soot/internal/pipeline"
	"github.com/sootlabs/soot/internal/sandbox"
	"github.com/sootlabs/soot/internal/server"
	"github.com/sootlabs/soot/internal/store"
	"github.com/sootlabs/soot/internal/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the soot server",
	Long:  "Start the soot API server that runs fix jobs in sandboxes and broadcasts agent activity.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening job journal: %w", err)
	}
	defer st.Close()

	hub := gateway.NewHub(5 * time.Second)
	runner := pipeline.New(
		cfg,
		sandbox.NewDocker(cfg.SandboxTimeout),
		github.NewClient(cfg.GitHubToken),
		server.EventFanout{Hub: hub, Emitter: webhook.NewEmitter(cfg.EventIngestURL)},
		st,
	)
	srv := server.New(cfg, st, hub, runner)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		cancel()
	}()

	return srv.Start(ctx)
}
