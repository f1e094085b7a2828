package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MarkerBackend selects where the identity marker is persisted.
type MarkerBackend string

const (
	// MarkerBackendFile stores the marker as a JSON file.
	MarkerBackendFile MarkerBackend = "file"
	// MarkerBackendRedis stores the marker in Redis.
	MarkerBackendRedis MarkerBackend = "redis"
	// MarkerBackendMemory keeps the marker in process memory (no silent refresh across restarts).
	MarkerBackendMemory MarkerBackend = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for MarkerBackend.
func (m *MarkerBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "file", "redis", "memory":
		*m = MarkerBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid MarkerBackend: %q (valid options: file, redis, memory)", v)
	}
}

// StorageConfig contains identity marker storage configuration.
type StorageConfig struct {
	Backend MarkerBackend `env:"MARKER_STORE" envDefault:"file"`

	// FilePath is the marker location for the file backend.
	// Defaults to $HOME/.elearn-admin/user.json.
	FilePath string `env:"MARKER_FILE"`

	// RedisKey is the well-known key for the Redis backend.
	RedisKey string `env:"MARKER_REDIS_KEY" envDefault:"elearn-admin:user"`
}

// Sanitize fills derived defaults.
func (s *StorageConfig) Sanitize() {
	if s.Backend == "" {
		s.Backend = MarkerBackendFile
	}
	if strings.TrimSpace(s.FilePath) == "" {
		dir, err := os.UserHomeDir()
		if err != nil || dir == "" {
			dir = os.TempDir()
		}
		s.FilePath = filepath.Join(dir, ".elearn-admin", "user.json")
	}
	if strings.TrimSpace(s.RedisKey) == "" {
		s.RedisKey = "elearn-admin:user"
	}
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
}
