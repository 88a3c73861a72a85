package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/persona-chat/internal/artifact"
	"github.com/jonathan/persona-chat/internal/character"
	"github.com/jonathan/persona-chat/internal/types"
)

// fakeLLM records the last chat call.
type fakeLLM struct {
	reply      string
	err        error
	chatCalls  int
	lastSystem string
	lastUser   string
}

func (f *fakeLLM) Chat(_ context.Context, system, message string) (string, error) {
	f.chatCalls++
	f.lastSystem = system
	f.lastUser = message
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) GenerateJSON(_ context.Context, _ string) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeLLM) Close() error { return nil }

func seedCharacter(t *testing.T, store *artifact.Store, id artifact.Identity, char *types.Character) {
	t.Helper()
	require.NoError(t, store.Write(id, artifact.CategoryCharacter, character.ArtifactName, char))
}

func newGateway(store *artifact.Store, llm *fakeLLM) *Gateway {
	return NewGateway(character.NewDeriver(store, llm), llm)
}

func TestSendTurn_AnswersInCharacter(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	id := artifact.Identity{Username: "alice", Day: "2025-03-14"}
	seedCharacter(t, store, id, &types.Character{
		Name:               "Alice",
		Handle:             "alice",
		Description:        "Terse compiler person.",
		SystemPromptPrefix: "You are Alice.",
		SystemPromptSuffix: "Stay in character.",
	})

	llm := &fakeLLM{reply: "LGTM, ship it."}
	gw := newGateway(store, llm)

	reply, err := gw.SendTurn(context.Background(), id, "What do you think of my patch?")
	require.NoError(t, err)
	assert.Equal(t, "LGTM, ship it.", reply)

	assert.Equal(t, "What do you think of my patch?", llm.lastUser)
	assert.Equal(t, "You are Alice.\n\nTerse compiler person.\n\nStay in character.", llm.lastSystem)
}

func TestSendTurn_NoCharacter(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	id := artifact.Identity{Username: "alice", Day: "2025-03-14"}

	llm := &fakeLLM{reply: "unused"}
	gw := newGateway(store, llm)

	_, err := gw.SendTurn(context.Background(), id, "hello")

	var notFound *ErrCharacterNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, id, notFound.Identity)
	assert.Zero(t, llm.chatCalls, "missing character must fail before inference")
}

func TestSendTurn_MalformedCharacter(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	id := artifact.Identity{Username: "alice", Day: "2025-03-14"}
	seedCharacter(t, store, id, &types.Character{Name: "Alice"}) // no description

	llm := &fakeLLM{reply: "unused"}
	gw := newGateway(store, llm)

	_, err := gw.SendTurn(context.Background(), id, "hello")
	require.Error(t, err)
	assert.Zero(t, llm.chatCalls)

	var notFound *ErrCharacterNotFound
	assert.False(t, errors.As(err, &notFound), "malformed is not the same as missing")
}

func TestSendTurn_InferenceFailure(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	id := artifact.Identity{Username: "alice", Day: "2025-03-14"}
	seedCharacter(t, store, id, &types.Character{
		Name:        "Alice",
		Description: "Terse compiler person.",
	})

	llm := &fakeLLM{err: errors.New("upstream timeout")}
	gw := newGateway(store, llm)

	_, err := gw.SendTurn(context.Background(), id, "hello")

	var inference *ErrInference
	require.ErrorAs(t, err, &inference)
	assert.ErrorContains(t, err, "upstream timeout")
}

func TestSendTurn_Stateless(t *testing.T) {
	store := artifact.NewStore(t.TempDir())
	id := artifact.Identity{Username: "alice", Day: "2025-03-14"}
	seedCharacter(t, store, id, &types.Character{
		Name:        "Alice",
		Description: "Terse compiler person.",
	})

	llm := &fakeLLM{reply: "hi"}
	gw := newGateway(store, llm)

	_, err := gw.SendTurn(context.Background(), id, "first")
	require.NoError(t, err)
	_, err = gw.SendTurn(context.Background(), id, "second")
	require.NoError(t, err)

	// Each turn carries only its own message, never prior history
	assert.Equal(t, "second", llm.lastUser)
	assert.Equal(t, 2, llm.chatCalls)
}
