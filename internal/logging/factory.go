package logging

import (
	"fmt"
	"time"

	"jobscout/internal/logging/adapters"
	"jobscout/internal/logging/types"
)

type adapterBuilder func(types.AdapterConfig) (types.LogAdapter, error)

var adapterBuilders = map[string]adapterBuilder{
	"stdout":      buildStdoutAdapter,
	"file":        buildFileAdapter,
	"betterstack": buildBetterstackAdapter,
}

// CreateAdapter builds a log adapter from its configuration block.
func CreateAdapter(cfg types.AdapterConfig) (types.LogAdapter, error) {
	builder, ok := adapterBuilders[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported adapter type: %s", cfg.Type)
	}
	return builder(cfg)
}

func buildStdoutAdapter(cfg types.AdapterConfig) (types.LogAdapter, error) {
	return adapters.NewStdoutAdapter(cfg.Name, adapters.StdoutConfig{
		Format:    optString(cfg.Options, "format", "json"),
		Colorized: optBool(cfg.Options, "colorized", false),
	}), nil
}

func buildFileAdapter(cfg types.AdapterConfig) (types.LogAdapter, error) {
	fileCfg := adapters.FileConfig{
		FilePath:    optString(cfg.Options, "file_path", ""),
		Format:      optString(cfg.Options, "format", "json"),
		MaxSize:     optInt64(cfg.Options, "max_size", 0),
		MaxAge:      optDuration(cfg.Options, "max_age", 0),
		MaxBackups:  optInt(cfg.Options, "max_backups", 10),
		Compress:    optBool(cfg.Options, "compress", false),
		CreateDirs:  optBool(cfg.Options, "create_dirs", true),
		FileMode:    0644,
		SyncOnWrite: optBool(cfg.Options, "sync_on_write", false),
	}
	if fileCfg.FilePath == "" {
		return nil, fmt.Errorf("file_path is required for file adapter")
	}
	return adapters.NewFileAdapter(cfg.Name, fileCfg)
}

func buildBetterstackAdapter(cfg types.AdapterConfig) (types.LogAdapter, error) {
	bsCfg := adapters.BetterstackConfig{
		SourceToken:   optString(cfg.Options, "source_token", ""),
		Endpoint:      optString(cfg.Options, "endpoint", "https://in.logs.betterstack.com"),
		BatchSize:     optInt(cfg.Options, "batch_size", 100),
		FlushInterval: optDuration(cfg.Options, "flush_interval", 5*time.Second),
		MaxRetries:    optInt(cfg.Options, "max_retries", 3),
		Timeout:       optDuration(cfg.Options, "timeout", 30*time.Second),
		UserAgent:     optString(cfg.Options, "user_agent", "jobscout/1.0"),
		Headers:       optStringMap(cfg.Options, "headers"),
	}
	return adapters.NewBetterstackAdapter(cfg.Name, bsCfg)
}

// Option extraction with defaults. YAML decodes numbers as int or
// float64 depending on the source, so both are accepted.

func optString(options map[string]interface{}, key, def string) string {
	if v, ok := options[key].(string); ok {
		return v
	}
	return def
}

func optBool(options map[string]interface{}, key string, def bool) bool {
	if v, ok := options[key].(bool); ok {
		return v
	}
	return def
}

func optInt(options map[string]interface{}, key string, def int) int {
	switch v := options[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

func optInt64(options map[string]interface{}, key string, def int64) int64 {
	switch v := options[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return def
}

func optDuration(options map[string]interface{}, key string, def time.Duration) time.Duration {
	if s, ok := options[key].(string); ok {
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
	}
	return def
}

func optStringMap(options map[string]interface{}, key string) map[string]string {
	result := make(map[string]string)
	if m, ok := options[key].(map[string]interface{}); ok {
		for k, v := range m {
			if s, ok := v.(string); ok {
				result[k] = s
			}
		}
	}
	return result
}
