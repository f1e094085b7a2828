package config

import (
	"strings"
	"time"
)

// DevBackendConfig controls the local development auth backend.
// Used by cmd/elearn-devbackend; never deployed.
type DevBackendConfig struct {
	Addr   string `env:"ADDR"   envDefault:":8000"`
	Secret string `env:"SECRET" envDefault:"dev-secret-change-me"`

	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	// Seeded accounts.
	AdminEmail    string `env:"ADMIN_EMAIL"    envDefault:"admin@example.com"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"admin"`
	UserEmail     string `env:"USER_EMAIL"     envDefault:"teacher@example.com"`
	UserPassword  string `env:"USER_PASSWORD"  envDefault:"teacher"`
}

// Sanitize applies guardrails to dev backend configuration values.
func (d *DevBackendConfig) Sanitize() {
	d.Addr = strings.TrimSpace(d.Addr)
	if d.Addr == "" {
		d.Addr = ":8000"
	}
	if d.AccessTokenTTL <= 0 {
		d.AccessTokenTTL = 15 * time.Minute
	}
	if d.RefreshTokenTTL <= 0 {
		d.RefreshTokenTTL = 7 * 24 * time.Hour
	}
}
