package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// Config holds all configuration for the application
type Config struct {
	Server          ServerConfig          `yaml:"server"`
	LLM             LLMConfig             `yaml:"llm"`
	Fetch           FetchConfig           `yaml:"fetch"`
	Firecrawl       FirecrawlConfig       `yaml:"firecrawl"`
	Discovery       DiscoveryConfig       `yaml:"discovery"`
	Extraction      ExtractionConfig      `yaml:"extraction"`
	Scoring         ScoringConfig         `yaml:"scoring"`
	Orchestrator    OrchestratorConfig    `yaml:"orchestrator"`
	Logging         LoggingConfig         `yaml:"logging"`
	Redis           RedisConfig           `yaml:"redis"`
	Callback        CallbackConfig        `yaml:"callback"`
	BackgroundTasks BackgroundTasksConfig `yaml:"background_tasks"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LLMConfig holds LLM provider configuration
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// FetchConfig holds page fetching configuration
type FetchConfig struct {
	UserAgent        string        `yaml:"user_agent"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryDelay       time.Duration `yaml:"retry_delay"`
	RateLimitRPS     float64       `yaml:"rate_limit_rps"`
	RateLimitBurst   int           `yaml:"rate_limit_burst"`
	BreakerThreshold int           `yaml:"breaker_threshold"`
	BreakerCooldown  time.Duration `yaml:"breaker_cooldown"`
	RenderEngine     string        `yaml:"render_engine"` // "browser" or "firecrawl"
	Browser          BrowserConfig `yaml:"browser"`
}

// BrowserConfig holds headless browser configuration
type BrowserConfig struct {
	Headless     bool          `yaml:"headless"`
	StealthMode  bool          `yaml:"stealth_mode"`
	PoolSize     int           `yaml:"pool_size"`
	PageTimeout  time.Duration `yaml:"page_timeout"`
	ScrollRounds int           `yaml:"scroll_rounds"`
	UserAgent    string        `yaml:"user_agent"`
}

// FirecrawlConfig holds Firecrawl render engine configuration
type FirecrawlConfig struct {
	APIKey  string        `yaml:"api_key"`
	APIURL  string        `yaml:"api_url"`
	Version string        `yaml:"version"`
	Timeout time.Duration `yaml:"timeout"`
}

// DiscoveryConfig holds career page discovery configuration
type DiscoveryConfig struct {
	ProbePaths       []string      `yaml:"probe_paths"`
	ProbeTimeout     time.Duration `yaml:"probe_timeout"`
	MaxHomepageLinks int           `yaml:"max_homepage_links"`
	AIConfidence     float64       `yaml:"ai_confidence"`
}

// ExtractionConfig holds job extraction configuration
type ExtractionConfig struct {
	Strategies       []string `yaml:"strategies"`
	MinListings      int      `yaml:"min_listings"`
	MaxPages         int      `yaml:"max_pages"`
	MaxContentLength int      `yaml:"max_content_length"`
}

// ScoringConfig holds match scoring configuration
type ScoringConfig struct {
	Weights         models.ScoreWeights `yaml:"weights"`
	Bands           models.ScoreBands   `yaml:"bands"`
	NeutralScore    float64             `yaml:"neutral_score"`
	DefaultMinScore float64             `yaml:"default_min_score"`
	UseLLMReasoning bool                `yaml:"use_llm_reasoning"`
}

// OrchestratorConfig holds pipeline orchestration configuration
type OrchestratorConfig struct {
	MaxConcurrent      int           `yaml:"max_concurrent"`
	DefaultBudget      time.Duration `yaml:"default_budget"`
	DiscoveryFraction  float64       `yaml:"discovery_fraction"`
	ExtractionFraction float64       `yaml:"extraction_fraction"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	Adapters []struct {
		Name    string                 `yaml:"name"`
		Type    string                 `yaml:"type"`
		Enabled bool                   `yaml:"enabled"`
		Options map[string]interface{} `yaml:"options"`
	} `yaml:"adapters"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL     string        `yaml:"url"`
	TaskTTL time.Duration `yaml:"task_ttl"`
}

// CallbackConfig holds webhook callback configuration
type CallbackConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// BackgroundTasksConfig holds background task processing configuration
type BackgroundTasksConfig struct {
	Workers         int           `yaml:"workers"`
	QueueSize       int           `yaml:"queue_size"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	TaskRetention   time.Duration `yaml:"task_retention"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := defaultConfig()

	// Load from config file if provided
	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with environment variables
	loadFromEnv(config)

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		LLM: LLMConfig{
			Provider:    "claude",
			Model:       "claude-3-5-sonnet-20241022",
			MaxTokens:   4096,
			Temperature: 0.1,
			Timeout:     60 * time.Second,
		},
		Fetch: FetchConfig{
			UserAgent:        "Mozilla/5.0 (compatible; JobScout/1.0)",
			Timeout:          20 * time.Second,
			MaxRetries:       2,
			RetryDelay:       500 * time.Millisecond,
			RateLimitRPS:     2,
			RateLimitBurst:   4,
			BreakerThreshold: 5,
			BreakerCooldown:  60 * time.Second,
			RenderEngine:     "browser",
			Browser: BrowserConfig{
				Headless:     true,
				StealthMode:  true,
				PoolSize:     3,
				PageTimeout:  30 * time.Second,
				ScrollRounds: 5,
			},
		},
		Firecrawl: FirecrawlConfig{
			APIURL:  "https://api.firecrawl.dev",
			Version: "v1",
			Timeout: 60 * time.Second,
		},
		Discovery: DiscoveryConfig{
			ProbePaths: []string{
				"/careers", "/careers/", "/jobs", "/jobs/",
				"/join-us", "/join", "/about/careers",
				"/company/careers", "/work-with-us", "/openings",
			},
			ProbeTimeout:     8 * time.Second,
			MaxHomepageLinks: 40,
			AIConfidence:     0.6,
		},
		Extraction: ExtractionConfig{
			Strategies:       []string{"structured_data", "html_pattern", "ai_assisted", "browser_vision"},
			MinListings:      2,
			MaxPages:         5,
			MaxContentLength: 50000,
		},
		Scoring: ScoringConfig{
			Weights:         models.DefaultScoreWeights(),
			Bands:           models.DefaultScoreBands(),
			NeutralScore:    50,
			DefaultMinScore: 0.4,
			UseLLMReasoning: true,
		},
		Orchestrator: OrchestratorConfig{
			MaxConcurrent:      5,
			DefaultBudget:      120 * time.Second,
			DiscoveryFraction:  0.2,
			ExtractionFraction: 0.6,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Redis: RedisConfig{
			URL:     "redis://localhost:6379",
			TaskTTL: 24 * time.Hour,
		},
		Callback: CallbackConfig{
			Enabled:    false,
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			RetryDelay: 2 * time.Second,
		},
		BackgroundTasks: BackgroundTasksConfig{
			Workers:         4,
			QueueSize:       100,
			CleanupInterval: 10 * time.Minute,
			TaskRetention:   time.Hour,
		},
	}
}

func loadFromFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Expand environment variables in the config file
	expandedData := expandEnvVars(string(data))

	return yaml.Unmarshal([]byte(expandedData), config)
}

// expandEnvVars expands ${VAR} references in the config file content
func expandEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1]
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return match
	})
}

func loadFromEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("HOST"); host != "" {
		config.Server.Host = host
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		config.LLM.Model = model
	}
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = provider
	}
	if engine := os.Getenv("FETCH_RENDER_ENGINE"); engine != "" {
		config.Fetch.RenderEngine = engine
	}
	if apiKey := os.Getenv("FIRECRAWL_API_KEY"); apiKey != "" {
		config.Firecrawl.APIKey = apiKey
	}
	if apiURL := os.Getenv("FIRECRAWL_API_URL"); apiURL != "" {
		config.Firecrawl.APIURL = apiURL
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		config.Redis.URL = redisURL
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if enabled := os.Getenv("CALLBACK_ENABLED"); enabled != "" {
		config.Callback.Enabled = enabled == "true" || enabled == "1"
	}
	if workers := os.Getenv("BACKGROUND_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			config.BackgroundTasks.Workers = w
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Orchestrator.MaxConcurrent <= 0 {
		return fmt.Errorf("orchestrator max_concurrent must be positive")
	}
	if c.Orchestrator.DefaultBudget <= 0 {
		return fmt.Errorf("orchestrator default_budget must be positive")
	}
	if f := c.Orchestrator.DiscoveryFraction; f <= 0 || f >= 1 {
		return fmt.Errorf("orchestrator discovery_fraction must be in (0,1)")
	}
	if f := c.Orchestrator.ExtractionFraction; f <= 0 || f >= 1 {
		return fmt.Errorf("orchestrator extraction_fraction must be in (0,1)")
	}
	if c.Orchestrator.DiscoveryFraction+c.Orchestrator.ExtractionFraction >= 1 {
		return fmt.Errorf("stage fractions must leave room for matching")
	}
	if len(c.Extraction.Strategies) == 0 {
		return fmt.Errorf("at least one extraction strategy must be enabled")
	}
	known := []string{"structured_data", "html_pattern", "ai_assisted", "browser_vision"}
	for _, s := range c.Extraction.Strategies {
		if !utils.Contains(known, s) {
			return fmt.Errorf("unknown extraction strategy: %s", s)
		}
	}
	if c.Scoring.DefaultMinScore < 0 || c.Scoring.DefaultMinScore > 1 {
		return fmt.Errorf("scoring default_min_score must be in [0,1]")
	}
	return nil
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsLLMConfigured reports whether an LLM provider can be constructed
func (c *Config) IsLLMConfigured() bool {
	return c.LLM.APIKey != ""
}

// IsFirecrawlConfigured reports whether the Firecrawl engine can be used
func (c *Config) IsFirecrawlConfigured() bool {
	return c.Firecrawl.APIKey != ""
}
