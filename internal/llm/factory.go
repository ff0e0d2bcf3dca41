package llm

import (
	"fmt"

	"jobscout/internal/config"
	"jobscout/internal/llm/providers"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.LLM.Provider {
	case "claude", "anthropic":
		return providers.NewClaudeProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}
}
