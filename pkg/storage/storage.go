package storage

import internalstorage "github.com/SmitUplenchwar2687/ps2emu/internal/storage"

// Store keeps serialized capture logs by key.
type Store = internalstorage.Store

// Config selects and configures a backend.
type Config = internalstorage.Config

// RedisConfig configures the Redis backend.
type RedisConfig = internalstorage.RedisConfig

const (
	BackendMemory = internalstorage.BackendMemory
	BackendFile   = internalstorage.BackendFile
	BackendRedis  = internalstorage.BackendRedis
)

// ErrNotFound is returned by Get for unknown keys.
var ErrNotFound = internalstorage.ErrNotFound

// New creates the backend named by cfg.Backend.
func New(cfg Config) (Store, error) {
	return internalstorage.New(cfg)
}

// ValidateKey rejects keys that cannot be stored by every backend.
func ValidateKey(key string) error {
	return internalstorage.ValidateKey(key)
}
