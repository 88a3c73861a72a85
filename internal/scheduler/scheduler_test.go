package scheduler

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/persona-chat/internal/artifact"
	"github.com/jonathan/persona-chat/internal/pipeline"
)

// fakeStarter records which usernames were started and can simulate an
// in-flight run.
type fakeStarter struct {
	mu      sync.Mutex
	started []string
	busy    map[string]bool
}

func (f *fakeStarter) Start(username string, _ pipeline.Options) (artifact.Identity, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy[username] {
		return artifact.Identity{}, "", &pipeline.ErrAlreadyRunning{Username: username}
	}
	f.started = append(f.started, username)
	return artifact.Today(username), "run-id", nil
}

func TestNew_RejectsBadCronSpec(t *testing.T) {
	_, err := New("not a cron spec", &fakeStarter{}, []string{"alice"})
	assert.Error(t, err)
}

func TestRefresh_StartsEveryUsername(t *testing.T) {
	starter := &fakeStarter{}
	s, err := New("@daily", starter, []string{"alice", "bob"})
	require.NoError(t, err)

	s.refresh()

	assert.Equal(t, []string{"alice", "bob"}, starter.started)
}

func TestRefresh_SkipsInFlightRuns(t *testing.T) {
	starter := &fakeStarter{busy: map[string]bool{"alice": true}}
	s, err := New("@daily", starter, []string{"alice", "bob"})
	require.NoError(t, err)

	s.refresh()

	assert.Equal(t, []string{"bob"}, starter.started)
}

func TestStartStop(t *testing.T) {
	s, err := New("@every 1h", &fakeStarter{}, []string{"alice"})
	require.NoError(t, err)

	s.Start()
	s.Stop()
}
