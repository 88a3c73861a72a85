package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jonathan/persona-chat/internal/scheduler"
	"github.com/jonathan/persona-chat/internal/server"
)

var (
	servePort   int
	serveConfig string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for running the persona pipeline, generating characters, chatting, and streaming logs.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "Path to JSON config file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(serveConfig)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	svc, err := buildServices(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer svc.close()

	if cfg.RefreshSchedule != "" {
		sched, err := scheduler.New(cfg.RefreshSchedule, svc.orchestrator, cfg.RefreshUsernames)
		if err != nil {
			return fmt.Errorf("invalid refresh schedule %q: %w", cfg.RefreshSchedule, err)
		}
		sched.Start()
		defer sched.Stop()
	}

	log.Printf("Artifact store rooted at %s", svc.store.Root())

	srv := server.New(server.Config{Port: cfg.Port}, server.Deps{
		Hub:          svc.hub,
		Orchestrator: svc.orchestrator,
		Deriver:      svc.deriver,
		Chat:         svc.chat,
	})

	return srv.Start()
}
