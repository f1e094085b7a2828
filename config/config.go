package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Auth backend endpoints and session policy
//   - http.go: Admin API client configuration
//   - database.go: Identity marker storage and Redis configuration
//   - observability.go: Logging configuration
//   - devbackend.go: Local development auth backend
type AppConfig struct {
	// IsDev controls development mode behavior (text logs, relaxed defaults).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Auth backend configuration
	Auth AuthConfig

	// Protected admin API configuration
	API APIConfig

	// Identity marker storage
	Storage StorageConfig
	Redis   RedisConfig `envPrefix:"REDIS_"`

	// Logging configuration
	Log LogConfig

	// Development backend configuration
	DevBackend DevBackendConfig `envPrefix:"DEV_BACKEND_"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Auth.Sanitize()
	c.API.Sanitize()
	c.Storage.Sanitize()
	c.DevBackend.Sanitize()

	// Check NODE_ENV for dev mode
	c.detectDevMode()
	c.Log.Sanitize(c.IsDev)
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// This is called by Sanitize() to ensure IsDev is set correctly.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
