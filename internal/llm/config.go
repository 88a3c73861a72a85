package llm

// ModelTier selects a model by the kind of work it does.
type ModelTier string

const (
	// TierChat is for conversational replies.
	TierChat ModelTier = "chat"
	// TierDerive is for structured character derivation from analytics.
	TierDerive ModelTier = "derive"
)

// Config holds the model selection for the application.
type Config struct {
	Models map[ModelTier]string
}

// DefaultConfig returns the default Gemini model configuration.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierChat:   "gemini-2.5-flash",
			TierDerive: "gemini-2.5-pro",
		},
	}
}

// GetModel returns the model name for a tier, falling back to the chat
// model when a tier is not configured.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	return c.Models[TierChat]
}

// WithModel returns a copy of the config with one tier overridden.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	next := &Config{Models: make(map[ModelTier]string, len(c.Models))}
	for k, v := range c.Models {
		next.Models[k] = v
	}
	next.Models[tier] = model
	return next
}
