package config

import (
	"strings"
	"time"
)

// APIConfig contains configuration for the protected admin API client.
type APIConfig struct {
	// BaseURL is the base URL of the admin resource surface (courses, students, ...).
	BaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8000/api/admin" validate:"required,url"`

	// Timeout bounds each admin API request, including its single retry.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"30s"`

	// UserAgent is sent with every admin API and auth backend request.
	UserAgent string `env:"API_USER_AGENT" envDefault:"elearn-admin"`
}

// Sanitize applies guardrails to API client configuration values.
func (a *APIConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if a.Timeout <= 0 {
		a.Timeout = 30 * time.Second
	}
	if strings.TrimSpace(a.UserAgent) == "" {
		a.UserAgent = "elearn-admin"
	}
}
