package types

import (
	"fmt"
	"strings"
)

// Character is the derived chat persona for one (username, day) identity.
// It is used verbatim as conversational context: the chat gateway
// concatenates the prompt prefix, description, and prompt suffix without
// further processing.
type Character struct {
	Name               string `json:"name"`
	Handle             string `json:"handle"`
	Bio                string `json:"bio"`
	Description        string `json:"description"`
	SystemPromptPrefix string `json:"system_prompt_prefix"`
	SystemPromptSuffix string `json:"system_prompt_suffix"`
}

// Validate performs presence checks on the fields the chat path requires.
// Schema validation happens at derivation time, not here.
func (c *Character) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("character is missing a name")
	}
	if strings.TrimSpace(c.Description) == "" {
		return fmt.Errorf("character is missing a description")
	}
	return nil
}

// SystemContext builds the system prompt for a chat turn by concatenating
// the prefix, description, and suffix verbatim.
func (c *Character) SystemContext() string {
	return c.SystemPromptPrefix + "\n\n" + c.Description + "\n\n" + c.SystemPromptSuffix
}
