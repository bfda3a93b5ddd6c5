package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// ErrNotFound is returned by Get when no log is stored under the key.
var ErrNotFound = errors.New("log not found")

// ErrNotDurable is returned by RequireDurable for backends that forget
// their logs when the process exits.
var ErrNotDurable = errors.New("store does not outlive the process")

// DefaultDir is where the file backend keeps logs when no directory is
// configured: $XDG_DATA_HOME/ps2emu/logs, else ~/.local/share/ps2emu/logs.
func DefaultDir() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "ps2emu", "logs")
}

// RequireDurable rejects backends whose logs cannot be read back by a
// later command.
func RequireDurable(cfg Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMemory:
		return fmt.Errorf("%w: the memory backend keeps logs only while one command runs, use the file or redis backend", ErrNotDurable)
	}
	return nil
}

// Store keeps serialized capture logs by key so a log recorded on one
// machine can be replayed on another.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put stores data under key, replacing any previous log.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the log stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns all stored keys in lexical order.
	List(ctx context.Context) ([]string, error)

	// Close releases backend resources. It is idempotent.
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend string      `mapstructure:"backend" yaml:"backend"`
	Dir     string      `mapstructure:"dir" yaml:"dir"`
	Redis   RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// New creates the backend named by cfg.Backend. An empty backend means
// memory.
func New(cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendRedis:
		return NewRedisStore(&cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown storage backend %q, must be one of: memory, file, redis", cfg.Backend)
	}
}

// ValidateKey rejects keys that cannot be stored portably by every backend.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}
