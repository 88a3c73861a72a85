package main

import (
	"context"
	"fmt"

	"github.com/jonathan/persona-chat/internal/artifact"
	"github.com/jonathan/persona-chat/internal/broadcast"
	"github.com/jonathan/persona-chat/internal/character"
	"github.com/jonathan/persona-chat/internal/chat"
	"github.com/jonathan/persona-chat/internal/collector"
	"github.com/jonathan/persona-chat/internal/config"
	"github.com/jonathan/persona-chat/internal/llm"
	"github.com/jonathan/persona-chat/internal/pipeline"
)

// services bundles the wired application graph.
type services struct {
	store        *artifact.Store
	hub          *broadcast.Hub
	llm          *llm.GeminiClient
	deriver      *character.Deriver
	chat         *chat.Gateway
	orchestrator *pipeline.Orchestrator
}

// buildServices wires the application from configuration.
func buildServices(ctx context.Context, cfg *config.Config) (*services, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	store := artifact.NewStore(cfg.DataDir)
	hub := broadcast.NewHub()
	feed := collector.NewFeedCollector(cfg.FeedBaseURL, collector.Options{
		UseBrowser: cfg.UseBrowser,
	})
	deriver := character.NewDeriver(store, client)

	return &services{
		store:        store,
		hub:          hub,
		llm:          client,
		deriver:      deriver,
		chat:         chat.NewGateway(deriver, client),
		orchestrator: pipeline.New(store, hub, feed, deriver),
	}, nil
}

// loadConfig merges the optional config file, environment, and defaults.
func loadConfig(path string) (*config.Config, error) {
	cfg := &config.Config{}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	merged := cfg.MergeWithDefaults(config.Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

func (s *services) close() {
	s.hub.Close()
	if err := s.llm.Close(); err != nil {
		fmt.Printf("Warning: failed to close LLM client: %v\n", err)
	}
}
