package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// Manager manages LLM provider instances and gates calls on provider health
type Manager struct {
	provider Provider
	config   *config.Config
	mu       sync.RWMutex
	healthy  bool
}

// NewManager creates a new LLM manager. When no provider is configured the
// manager is still constructed but reports the capability as unavailable.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{config: cfg}

	if !cfg.IsLLMConfigured() {
		return m, nil
	}

	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	m.provider = provider
	return m, nil
}

// Start performs the initial health check. A failing check is logged but does
// not prevent startup; the provider may recover.
func (m *Manager) Start(ctx context.Context) error {
	logger := logging.GetGlobalLogger()

	if m.provider == nil {
		logger.Warn("No LLM provider configured, AI-assisted stages disabled")
		return nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := m.provider.IsHealthy(checkCtx); err != nil {
		logger.Warn("LLM provider health check failed at startup", map[string]interface{}{
			"provider": m.provider.GetProviderName(),
			"error":    err.Error(),
		})
		m.setHealthy(false)
	} else {
		m.setHealthy(true)
		logger.Info("LLM provider ready", map[string]interface{}{
			"provider": m.provider.GetProviderName(),
		})
	}
	return nil
}

func (m *Manager) setHealthy(v bool) {
	m.mu.Lock()
	m.healthy = v
	m.mu.Unlock()
}

// Available reports whether a provider is configured
func (m *Manager) Available() bool {
	return m.provider != nil
}

// IsHealthy checks the current provider health
func (m *Manager) IsHealthy(ctx context.Context) error {
	if m.provider == nil {
		return utils.NewCapabilityUnavailableError(utils.StagePipeline, "llm", nil)
	}
	err := m.provider.IsHealthy(ctx)
	m.setHealthy(err == nil)
	return err
}

// GetProviderName returns the active provider name, or "none"
func (m *Manager) GetProviderName() string {
	if m.provider == nil {
		return "none"
	}
	return m.provider.GetProviderName()
}

// RankCareerLinks delegates to the provider
func (m *Manager) RankCareerLinks(ctx context.Context, companyName string, links []models.CandidateLink) (*models.CareerPageChoice, error) {
	if m.provider == nil {
		return nil, utils.NewCapabilityUnavailableError(utils.StageDiscovery, "llm", nil)
	}
	choice, err := m.provider.RankCareerLinks(ctx, companyName, links)
	if err != nil {
		m.noteFailure(err)
		return nil, err
	}
	m.setHealthy(true)
	return choice, nil
}

// ExtractJobListings delegates to the provider
func (m *Manager) ExtractJobListings(ctx context.Context, companyName, sourceURL, content string) ([]models.JobListing, error) {
	if m.provider == nil {
		return nil, utils.NewCapabilityUnavailableError(utils.StageExtraction, "llm", nil)
	}
	listings, err := m.provider.ExtractJobListings(ctx, companyName, sourceURL, content)
	if err != nil {
		m.noteFailure(err)
		return nil, err
	}
	m.setHealthy(true)
	return listings, nil
}

// ExplainMatch delegates to the provider
func (m *Manager) ExplainMatch(ctx context.Context, job *models.JobListing, prefs *models.UserPreferences, scores models.DimensionScores) (string, error) {
	if m.provider == nil {
		return "", utils.NewCapabilityUnavailableError(utils.StageMatching, "llm", nil)
	}
	reasoning, err := m.provider.ExplainMatch(ctx, job, prefs, scores)
	if err != nil {
		m.noteFailure(err)
		return "", err
	}
	m.setHealthy(true)
	return reasoning, nil
}

func (m *Manager) noteFailure(err error) {
	m.setHealthy(false)
	logging.GetGlobalLogger().Warn("LLM call failed", map[string]interface{}{
		"provider": m.GetProviderName(),
		"error":    err.Error(),
	})
}

// Shutdown releases provider resources
func (m *Manager) Shutdown(ctx context.Context) error {
	return nil
}
