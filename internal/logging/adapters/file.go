package adapters

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"jobscout/internal/logging/types"
)

// FileConfig configures the file adapter. Rotation triggers when the
// file exceeds MaxSize bytes or is older than MaxAge; either limit set
// to zero disables that trigger.
type FileConfig struct {
	FilePath    string        `yaml:"file_path"`
	Format      string        `yaml:"format"`
	MaxSize     int64         `yaml:"max_size"`
	MaxAge      time.Duration `yaml:"max_age"`
	MaxBackups  int           `yaml:"max_backups"`
	Compress    bool          `yaml:"compress"`
	CreateDirs  bool          `yaml:"create_dirs"`
	FileMode    os.FileMode   `yaml:"file_mode"`
	SyncOnWrite bool          `yaml:"sync_on_write"`
}

// FileAdapter writes log entries to a file with size and age based rotation.
type FileAdapter struct {
	name         string
	config       FileConfig
	file         *os.File
	size         int64
	lastRotation time.Time
	mu           sync.Mutex
}

// NewFileAdapter creates a new file adapter
func NewFileAdapter(name string, config FileConfig) (*FileAdapter, error) {
	if config.FileMode == 0 {
		config.FileMode = 0644
	}
	if config.MaxBackups == 0 {
		config.MaxBackups = 10
	}
	if config.Format == "" {
		config.Format = "json"
	}

	if config.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	a := &FileAdapter{
		name:         name,
		config:       config,
		lastRotation: time.Now(),
	}
	if err := a.open(); err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return a, nil
}

// Write writes a log entry to the file, rotating first if needed
func (a *FileAdapter) Write(entry *types.LogEntry) error {
	line, err := formatEntry(entry, a.config.Format, false)
	if err != nil {
		return fmt.Errorf("failed to format log entry: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.shouldRotate() {
		if err := a.rotate(); err != nil {
			return fmt.Errorf("failed to rotate log file: %w", err)
		}
	}

	n, err := a.file.WriteString(line + "\n")
	if err != nil {
		return fmt.Errorf("failed to write to log file: %w", err)
	}
	a.size += int64(n)

	if a.config.SyncOnWrite {
		if err := a.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync log file: %w", err)
		}
	}
	return nil
}

// Close closes the underlying file
func (a *FileAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// Health reports whether the log file is still writable
func (a *FileAdapter) Health() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return fmt.Errorf("log file is not open")
	}
	if _, err := a.file.Stat(); err != nil {
		return fmt.Errorf("log file is not accessible: %w", err)
	}
	return nil
}

// Name returns the name of the adapter
func (a *FileAdapter) Name() string {
	return a.name
}

func (a *FileAdapter) open() error {
	file, err := os.OpenFile(a.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, a.config.FileMode)
	if err != nil {
		return err
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}
	a.file = file
	a.size = stat.Size()
	return nil
}

func (a *FileAdapter) shouldRotate() bool {
	if a.config.MaxSize > 0 && a.size >= a.config.MaxSize {
		return true
	}
	if a.config.MaxAge > 0 && time.Since(a.lastRotation) >= a.config.MaxAge {
		return true
	}
	return false
}

func (a *FileAdapter) rotate() error {
	if a.file != nil {
		if err := a.file.Close(); err != nil {
			return fmt.Errorf("failed to close current log file: %w", err)
		}
		a.file = nil
	}

	backupPath := fmt.Sprintf("%s.%s", a.config.FilePath, time.Now().Format("20060102-150405"))
	if err := os.Rename(a.config.FilePath, backupPath); err != nil {
		return fmt.Errorf("failed to rename log file: %w", err)
	}

	// Compression and backup cleanup failures must not block rotation
	if a.config.Compress {
		if err := compressFile(backupPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to compress rotated log %s: %v\n", backupPath, err)
		}
	}
	if err := a.pruneBackups(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to prune old log backups: %v\n", err)
	}

	if err := a.open(); err != nil {
		return fmt.Errorf("failed to open new log file: %w", err)
	}
	a.lastRotation = time.Now()
	return nil
}

// compressFile gzips the rotated file in place and removes the original.
func compressFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}

	zw := gzip.NewWriter(dst)
	if _, err := io.Copy(zw, src); err != nil {
		zw.Close()
		dst.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}

// pruneBackups keeps the newest MaxBackups rotated files and deletes the rest.
func (a *FileAdapter) pruneBackups() error {
	dir := filepath.Dir(a.config.FilePath)
	baseName := filepath.Base(a.config.FilePath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var backups []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, baseName+".") && name != baseName {
			backups = append(backups, filepath.Join(dir, name))
		}
	}

	sort.Slice(backups, func(i, j int) bool {
		statI, errI := os.Stat(backups[i])
		statJ, errJ := os.Stat(backups[j])
		if errI != nil || errJ != nil {
			return false
		}
		return statI.ModTime().After(statJ.ModTime())
	})

	if len(backups) <= a.config.MaxBackups {
		return nil
	}
	for _, backup := range backups[a.config.MaxBackups:] {
		if err := os.Remove(backup); err != nil {
			fmt.Fprintf(os.Stderr, "failed to remove old backup %s: %v\n", backup, err)
		}
	}
	return nil
}
