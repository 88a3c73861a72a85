package main

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jonathan/persona-chat/internal/pipeline"
)

var (
	runUsername      string
	runWithCharacter bool
	runConfig        string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once for a username",
	Long:  `Collect the user's feed, aggregate analytics, and optionally derive the chat character, then exit. Stages with artifacts already written today are skipped.`,
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runUsername, "username", "", "Feed username to process (required)")
	runCmd.Flags().BoolVar(&runWithCharacter, "with-character", false, "Also derive the chat character")
	runCmd.Flags().StringVar(&runConfig, "config", "", "Path to JSON config file")
	_ = runCmd.MarkFlagRequired("username")
	rootCmd.AddCommand(runCmd)
}

func runRun(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(runConfig)
	if err != nil {
		return err
	}

	ctx := context.Background()
	svc, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.close()

	// Mirror pipeline events to the terminal
	sub := svc.hub.Subscribe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for event := range sub.C {
			log.Printf("[%s] %s", event.Kind, event.Message)
		}
	}()

	id, runErr := svc.orchestrator.Run(ctx, runUsername, pipeline.Options{
		WithCharacter: runWithCharacter,
	})

	svc.hub.Unsubscribe(sub)
	wg.Wait()

	if runErr != nil {
		return runErr
	}
	fmt.Printf("Pipeline completed for %s; artifacts under %s\n", id, svc.store.Root())
	return nil
}
