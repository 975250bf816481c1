package llm

import (
	"context"

	"github.com/opensme/grantscout/internal/model"
)

// Provider defines the interface for generation backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate runs a single generation call and returns the raw response text
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// GenerateRequest contains the input for one generation call
type GenerateRequest struct {
	// System is the policy/system instruction for the call
	System string

	// Prompt is the user-turn content (document text plus task framing)
	Prompt string

	// Model overrides the configured model when non-empty
	Model string

	// MaxTokens limits the response length (0 = provider default)
	MaxTokens int

	// Temperature controls sampling; extraction runs at 0 for determinism
	Temperature float32
}

// GenerateResponse contains the raw generation output
type GenerateResponse struct {
	// Text is the complete response text; JSON carving happens upstream
	Text string

	// Model is the model that produced the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds generation backend configuration
type Config struct {
	// Provider name: "openai" or "" (disabled)
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey authenticates against the backend
	APIKey string

	// BaseURL points at an OpenAI-compatible gateway when non-empty
	BaseURL string

	// Timeout for API requests, in seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int

	// InsecureTLS skips certificate verification on the constructed client's
	// transport. The option travels with each client instead of mutating
	// process-wide HTTP state.
	InsecureTLS bool

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Timeout:   60,
		MaxTokens: 2000,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:    mc.Provider,
		Model:       mc.Model,
		APIKey:      mc.APIKey,
		BaseURL:     mc.BaseURL,
		Timeout:     mc.Timeout,
		MaxTokens:   mc.MaxTokens,
		InsecureTLS: mc.InsecureTLS,
	}
}
