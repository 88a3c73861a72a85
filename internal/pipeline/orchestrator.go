// Package pipeline orchestrates the per-user run: collect the feed,
// aggregate analytics, and optionally derive the chat character. Each stage
// is cache-aware: re-running a (username, day) that already has a stage's
// artifact skips the work and reuses the snapshot.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/persona-chat/internal/analytics"
	"github.com/jonathan/persona-chat/internal/artifact"
	"github.com/jonathan/persona-chat/internal/broadcast"
	"github.com/jonathan/persona-chat/internal/character"
	"github.com/jonathan/persona-chat/internal/collector"
	"github.com/jonathan/persona-chat/internal/types"
)

// Status values reported for a (username, day).
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusNotStarted = "not_started"
)

// Artifact document names written by the pipeline stages.
const (
	rawArtifact       = "records"
	analyticsArtifact = "stats"
	stateArtifact     = "state"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,32}$`)

// ErrInvalidUsername indicates the requested username fails validation.
type ErrInvalidUsername struct {
	Username string
}

func (e *ErrInvalidUsername) Error() string {
	return fmt.Sprintf("invalid username %q: must be 1-32 word characters", e.Username)
}

// ErrAlreadyRunning indicates a run for the username is already in flight.
type ErrAlreadyRunning struct {
	Username string
}

func (e *ErrAlreadyRunning) Error() string {
	return fmt.Sprintf("a run for %s is already in progress", e.Username)
}

// Options control optional pipeline stages.
type Options struct {
	// WithCharacter derives the chat character at the end of the run
	// instead of leaving it to the first on-demand request.
	WithCharacter bool
}

// Orchestrator runs pipelines and tracks which usernames are in flight.
type Orchestrator struct {
	store     *artifact.Store
	hub       *broadcast.Hub
	collector collector.Collector
	deriver   *character.Deriver

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New creates an orchestrator.
func New(store *artifact.Store, hub *broadcast.Hub, c collector.Collector, deriver *character.Deriver) *Orchestrator {
	return &Orchestrator{
		store:     store,
		hub:       hub,
		collector: c,
		deriver:   deriver,
		inflight:  make(map[string]struct{}),
	}
}

// Start launches a pipeline run in the background and returns its identity
// and run ID. The day is frozen here: a run that crosses midnight keeps its
// original identity. A second Start for the same username while the first is
// still in flight is rejected with ErrAlreadyRunning.
func (o *Orchestrator) Start(username string, opts Options) (artifact.Identity, string, error) {
	id, runID, err := o.begin(username)
	if err != nil {
		return artifact.Identity{}, "", err
	}

	go func() {
		// The run must outlive the request that started it.
		ctx := context.Background()
		if err := o.execute(ctx, id, runID, opts); err != nil {
			log.Printf("[pipeline] run %s for %s failed: %v", runID, id, err)
		}
	}()
	return id, runID, nil
}

// Run executes a pipeline synchronously. Used by the CLI.
func (o *Orchestrator) Run(ctx context.Context, username string, opts Options) (artifact.Identity, error) {
	id, runID, err := o.begin(username)
	if err != nil {
		return artifact.Identity{}, err
	}
	return id, o.execute(ctx, id, runID, opts)
}

// begin validates the username, reserves the in-flight slot, and records the
// pending run state.
func (o *Orchestrator) begin(username string) (artifact.Identity, string, error) {
	if !usernamePattern.MatchString(username) {
		return artifact.Identity{}, "", &ErrInvalidUsername{Username: username}
	}

	o.mu.Lock()
	if _, running := o.inflight[username]; running {
		o.mu.Unlock()
		return artifact.Identity{}, "", &ErrAlreadyRunning{Username: username}
	}
	o.inflight[username] = struct{}{}
	o.mu.Unlock()

	id := artifact.Today(username)
	runID := uuid.NewString()
	state := types.RunState{
		RunID:     runID,
		Username:  username,
		Day:       id.Day,
		Status:    types.RunPending,
		StartedAt: time.Now().UTC(),
	}
	if err := o.store.Write(id, artifact.CategoryRun, stateArtifact, &state); err != nil {
		o.release(username)
		return artifact.Identity{}, "", err
	}
	return id, runID, nil
}

func (o *Orchestrator) release(username string) {
	o.mu.Lock()
	delete(o.inflight, username)
	o.mu.Unlock()
}

// execute runs the stages in order and records the terminal run state.
func (o *Orchestrator) execute(ctx context.Context, id artifact.Identity, runID string, opts Options) error {
	defer o.release(id.Username)

	o.hub.Infof("Starting pipeline for @%s (%s)", id.Username, id.Day)

	err := o.runStages(ctx, id, opts)
	if err != nil {
		o.hub.Errorf("Pipeline for @%s failed: %v", id.Username, err)
		o.finish(id, runID, types.RunFailed, err)
		return err
	}

	o.hub.Infof("Pipeline for @%s completed", id.Username)
	o.finish(id, runID, types.RunCompleted, nil)
	return nil
}

func (o *Orchestrator) runStages(ctx context.Context, id artifact.Identity, opts Options) error {
	posts, err := o.collectStage(ctx, id)
	if err != nil {
		return err
	}
	if err := o.aggregateStage(id, posts); err != nil {
		return err
	}
	if opts.WithCharacter {
		o.hub.Logf("Deriving character for @%s", id.Username)
		if _, err := o.deriver.GetOrGenerate(ctx, id); err != nil {
			return err
		}
		o.hub.Infof("Character for @%s ready", id.Username)
	}
	return nil
}

// collectStage fetches the feed, or reuses today's raw snapshot if one
// already exists.
func (o *Orchestrator) collectStage(ctx context.Context, id artifact.Identity) ([]types.Post, error) {
	if o.store.Exists(id, artifact.CategoryRaw, rawArtifact) {
		o.hub.Infof("Using cached feed data for @%s", id.Username)
		var posts []types.Post
		if err := o.store.Read(id, artifact.CategoryRaw, rawArtifact, &posts); err != nil {
			return nil, err
		}
		return posts, nil
	}

	o.hub.Logf("Collecting feed for @%s", id.Username)
	posts, err := o.collector.Collect(ctx, id.Username)
	if err != nil {
		return nil, fmt.Errorf("collect stage failed: %w", err)
	}
	if err := o.store.Write(id, artifact.CategoryRaw, rawArtifact, posts); err != nil {
		return nil, err
	}
	o.hub.Infof("Collected %d posts for @%s", len(posts), id.Username)
	return posts, nil
}

// aggregateStage computes the analytics summary, or skips if today's summary
// already exists.
func (o *Orchestrator) aggregateStage(id artifact.Identity, posts []types.Post) error {
	if o.store.Exists(id, artifact.CategoryAnalytics, analyticsArtifact) {
		o.hub.Infof("Using cached analytics for @%s", id.Username)
		return nil
	}

	o.hub.Logf("Aggregating analytics for @%s", id.Username)
	stats := analytics.Aggregate(id.Username, id.Day, posts)
	if err := o.store.Write(id, artifact.CategoryAnalytics, analyticsArtifact, stats); err != nil {
		return err
	}
	o.hub.Infof("Analytics for @%s ready (%d posts)", id.Username, stats.TotalPosts)
	return nil
}

// finish records the terminal run state. State transitions are monotonic:
// once completed or failed, a record is only replaced by a new run.
func (o *Orchestrator) finish(id artifact.Identity, runID string, status string, runErr error) {
	now := time.Now().UTC()
	state := types.RunState{
		RunID:      runID,
		Username:   id.Username,
		Day:        id.Day,
		Status:     status,
		FinishedAt: &now,
	}
	if runErr != nil {
		state.Error = runErr.Error()
	}

	// Preserve the original start time if the pending record is readable.
	var prev types.RunState
	if err := o.store.Read(id, artifact.CategoryRun, stateArtifact, &prev); err == nil && prev.RunID == runID {
		state.StartedAt = prev.StartedAt
	} else {
		state.StartedAt = now
	}

	if err := o.store.Write(id, artifact.CategoryRun, stateArtifact, &state); err != nil {
		log.Printf("[pipeline] failed to record %s state for %s: %v", status, id, err)
	}
}

// Status reports the pipeline state for an identity. The run state record is
// authoritative; for data written before state records existed, presence of
// the analytics artifact counts as completed.
func (o *Orchestrator) Status(id artifact.Identity) string {
	o.mu.Lock()
	_, running := o.inflight[id.Username]
	o.mu.Unlock()

	var state types.RunState
	err := o.store.Read(id, artifact.CategoryRun, stateArtifact, &state)
	if err == nil {
		switch state.Status {
		case types.RunCompleted:
			return StatusCompleted
		case types.RunFailed:
			if running {
				// A newer run is in flight for the same day.
				return StatusInProgress
			}
			return StatusFailed
		default:
			return StatusInProgress
		}
	}
	if !errors.Is(err, artifact.ErrNotFound) {
		// A transient read failure is indistinguishable from a run mid-write.
		// Callers poll, so report in progress rather than a terminal state.
		log.Printf("[pipeline] failed to read run state for %s: %v", id, err)
		return StatusInProgress
	}

	if o.store.Exists(id, artifact.CategoryAnalytics, analyticsArtifact) {
		return StatusCompleted
	}
	if running {
		return StatusInProgress
	}
	return StatusNotStarted
}
