// Package character derives and caches the per-day chat persona.
//
// Derivation is a read-through cache over the artifact store: a cached
// character is returned as-is; on a miss the deriver prompts the LLM with
// the analytics summary, validates the output against a JSON Schema,
// persists it, and returns the stored document.
package character

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/persona-chat/internal/artifact"
	"github.com/jonathan/persona-chat/internal/llm"
	"github.com/jonathan/persona-chat/internal/types"
)

// ArtifactName is the document name of the character artifact.
const ArtifactName = "character"

//go:embed character_schema.json
var characterSchema string

// ErrAnalyticsNotReady indicates derivation was requested before the
// upstream analytics artifact exists for the identity.
type ErrAnalyticsNotReady struct {
	Identity artifact.Identity
}

func (e *ErrAnalyticsNotReady) Error() string {
	return fmt.Sprintf("analytics summary for %s is not ready; run the pipeline first", e.Identity)
}

// DerivationError wraps a failure while generating or validating the
// character document.
type DerivationError struct {
	Identity artifact.Identity
	Message  string
	Cause    error
}

func (e *DerivationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("character derivation for %s failed: %s: %v", e.Identity, e.Message, e.Cause)
	}
	return fmt.Sprintf("character derivation for %s failed: %s", e.Identity, e.Message)
}

func (e *DerivationError) Unwrap() error {
	return e.Cause
}

// Deriver generates characters from analytics summaries and caches them in
// the artifact store.
type Deriver struct {
	store *artifact.Store
	llm   llm.Client
}

// NewDeriver creates a deriver.
func NewDeriver(store *artifact.Store, client llm.Client) *Deriver {
	return &Deriver{store: store, llm: client}
}

// Get returns the cached character for an identity, or ErrNotFound.
func (d *Deriver) Get(id artifact.Identity) (*types.Character, error) {
	var character types.Character
	if err := d.store.Read(id, artifact.CategoryCharacter, ArtifactName, &character); err != nil {
		return nil, err
	}
	return &character, nil
}

// GetOrGenerate returns the cached character for an identity, deriving and
// persisting it first on a cache miss. This call blocks for as long as the
// LLM takes; callers apply their own timeout via ctx.
func (d *Deriver) GetOrGenerate(ctx context.Context, id artifact.Identity) (*types.Character, error) {
	cached, err := d.Get(id)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, artifact.ErrNotFound) {
		return nil, err
	}

	var stats types.Stats
	if err := d.store.Read(id, artifact.CategoryAnalytics, "stats", &stats); err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return nil, &ErrAnalyticsNotReady{Identity: id}
		}
		return nil, err
	}

	raw, err := d.llm.GenerateJSON(ctx, buildDerivationPrompt(&stats))
	if err != nil {
		return nil, &DerivationError{Identity: id, Message: "LLM call failed", Cause: err}
	}

	if err := validateCharacterJSON(raw); err != nil {
		return nil, &DerivationError{Identity: id, Message: "LLM output failed schema validation", Cause: err}
	}

	var character types.Character
	if err := json.Unmarshal([]byte(raw), &character); err != nil {
		return nil, &DerivationError{Identity: id, Message: "LLM output is not valid JSON", Cause: err}
	}
	if character.Handle == "" {
		character.Handle = id.Username
	}

	if err := d.store.Write(id, artifact.CategoryCharacter, ArtifactName, &character); err != nil {
		return nil, err
	}

	// Read back what was persisted so the caller sees exactly the cached bytes.
	return d.Get(id)
}

// validateCharacterJSON checks the raw LLM output against the embedded
// character schema before it is persisted.
func validateCharacterJSON(raw string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(characterSchema),
		gojsonschema.NewStringLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("schema validation could not run: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var msgs []string
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, desc.Description()))
	}
	return fmt.Errorf("invalid character document: %v", msgs)
}
