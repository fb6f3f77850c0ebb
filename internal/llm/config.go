// Package llm provides the client abstraction over the hosted text-generation service
// used for résumé coaching chats and snapshot reconciliation.
package llm

import "time"

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for cheap one-shot work such as text clean-up
	TierLite ModelTier = "lite"
	// TierStandard is used for coaching chats and snapshot merges
	TierStandard ModelTier = "standard"
	// TierAdvanced is reserved for callers that explicitly ask for a stronger model
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider and currently the only one implemented.
const ProviderGemini Provider = "gemini"

// Defaults applied by DefaultConfig.
const (
	DefaultTemperature  float32 = 0.1
	DefaultPollInterval         = 5 * time.Second
)

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
	// PollInterval is how often an uploaded file is re-checked while the
	// service is still processing it.
	PollInterval time.Duration
}

// DefaultConfig returns the default Gemini configuration
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature:  DefaultTemperature,
		PollInterval: DefaultPollInterval,
	}
}

// GetModel returns the model name for a given tier, falling back to the
// standard tier and then the lite tier.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a copy of the config with model assigned to tier.
// An empty model leaves the config unchanged.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := *c
	out.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		out.Models[k] = v
	}
	if model != "" {
		out.Models[tier] = model
	}
	return &out
}
