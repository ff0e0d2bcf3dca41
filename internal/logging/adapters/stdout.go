package adapters

import (
	"fmt"
	"os"
	"sync"

	"jobscout/internal/logging/types"
)

// StdoutConfig configures the stdout adapter.
type StdoutConfig struct {
	Format    string `yaml:"format"`
	Colorized bool   `yaml:"colorized"`
}

// StdoutAdapter writes log entries to standard output.
type StdoutAdapter struct {
	name   string
	config StdoutConfig
	mu     sync.Mutex
}

// NewStdoutAdapter creates a new stdout adapter
func NewStdoutAdapter(name string, config StdoutConfig) *StdoutAdapter {
	return &StdoutAdapter{name: name, config: config}
}

// Write writes a log entry to stdout
func (a *StdoutAdapter) Write(entry *types.LogEntry) error {
	line, err := formatEntry(entry, a.config.Format, a.config.Colorized)
	if err != nil {
		return fmt.Errorf("failed to format log entry: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	_, err = fmt.Fprintln(os.Stdout, line)
	return err
}

// Close is a no-op for stdout
func (a *StdoutAdapter) Close() error {
	return nil
}

// Health always reports healthy for stdout
func (a *StdoutAdapter) Health() error {
	return nil
}

// Name returns the name of the adapter
func (a *StdoutAdapter) Name() string {
	return a.name
}
