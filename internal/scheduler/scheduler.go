// Package scheduler refreshes configured usernames on a cron schedule so
// their daily snapshots exist before anyone asks for them.
package scheduler

import (
	"errors"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/jonathan/persona-chat/internal/artifact"
	"github.com/jonathan/persona-chat/internal/pipeline"
)

// Starter launches background pipeline runs. Satisfied by
// *pipeline.Orchestrator.
type Starter interface {
	Start(username string, opts pipeline.Options) (artifact.Identity, string, error)
}

// Scheduler triggers pipeline runs for a fixed set of usernames on a cron
// expression.
type Scheduler struct {
	cron      *cron.Cron
	starter   Starter
	usernames []string
}

// New creates a scheduler. The spec uses standard 5-field cron syntax.
func New(spec string, starter Starter, usernames []string) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(),
		starter:   starter,
		usernames: usernames,
	}
	if _, err := s.cron.AddFunc(spec, s.refresh); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins running the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("[scheduler] refreshing %d username(s) on schedule", len(s.usernames))
}

// Stop stops the schedule. Runs already started keep going.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// refresh kicks off a background run per username. A username whose run is
// still in flight from a previous trigger is skipped.
func (s *Scheduler) refresh() {
	for _, username := range s.usernames {
		_, runID, err := s.starter.Start(username, pipeline.Options{WithCharacter: true})
		if err != nil {
			var running *pipeline.ErrAlreadyRunning
			if errors.As(err, &running) {
				log.Printf("[scheduler] skipping @%s: run already in progress", username)
				continue
			}
			log.Printf("[scheduler] failed to start refresh for @%s: %v", username, err)
			continue
		}
		log.Printf("[scheduler] started refresh run %s for @%s", runID, username)
	}
}
