// Package main provides the entry point for the persona pipeline server and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "persona_agent",
	Short: "Persona pipeline server",
	Long:  "Persona agent collects a user's public feed, aggregates daily analytics, derives a chat character, and answers chat turns in that character's voice via REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
