// Package chat is the stateless chat gateway. Each turn loads the cached
// character for an identity, builds the system context from it, and forwards
// the single user message to the LLM. No conversation history is kept on the
// server; clients that want multi-turn chat resend context themselves.
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/persona-chat/internal/artifact"
	"github.com/jonathan/persona-chat/internal/character"
	"github.com/jonathan/persona-chat/internal/llm"
)

// ErrCharacterNotFound indicates no character artifact exists for the
// identity. The gateway never triggers derivation itself.
type ErrCharacterNotFound struct {
	Identity artifact.Identity
}

func (e *ErrCharacterNotFound) Error() string {
	return fmt.Sprintf("no character exists for %s; generate one first", e.Identity)
}

// ErrInference wraps an upstream LLM failure during a chat turn.
type ErrInference struct {
	Cause error
}

func (e *ErrInference) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Cause)
}

func (e *ErrInference) Unwrap() error {
	return e.Cause
}

// Gateway answers chat turns in character.
type Gateway struct {
	deriver *character.Deriver
	llm     llm.Client
}

// NewGateway creates a gateway backed by the deriver's character cache.
func NewGateway(deriver *character.Deriver, client llm.Client) *Gateway {
	return &Gateway{deriver: deriver, llm: client}
}

// SendTurn answers one user message as the identity's character. The
// character must already exist; a missing or malformed character fails the
// turn before any inference call is made.
func (g *Gateway) SendTurn(ctx context.Context, id artifact.Identity, message string) (string, error) {
	char, err := g.deriver.Get(id)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return "", &ErrCharacterNotFound{Identity: id}
		}
		return "", err
	}
	if err := char.Validate(); err != nil {
		return "", fmt.Errorf("stored character for %s is unusable: %w", id, err)
	}

	reply, err := g.llm.Chat(ctx, char.SystemContext(), message)
	if err != nil {
		return "", &ErrInference{Cause: err}
	}
	return reply, nil
}
