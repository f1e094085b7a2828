package config

import (
	"strings"
	"time"
)

const defaultAuthTimeout = 15 * time.Second

// AuthConfig contains configuration for the collaborator authentication backend.
type AuthConfig struct {
	// BaseURL is the prefix of the login, logout and refresh endpoints.
	BaseURL string `env:"AUTH_BASE_URL" envDefault:"http://localhost:8000/api/auth" validate:"required,url"`

	LoginPath   string `env:"AUTH_LOGIN_PATH"   envDefault:"/login"`
	LogoutPath  string `env:"AUTH_LOGOUT_PATH"  envDefault:"/logout"`
	RefreshPath string `env:"AUTH_REFRESH_PATH" envDefault:"/refresh-token"`

	// Timeout bounds each login, refresh and logout call.
	Timeout time.Duration `env:"AUTH_TIMEOUT" envDefault:"15s"`

	// RequireSuperuser rejects logins whose identity is not a superuser.
	RequireSuperuser bool `env:"AUTH_REQUIRE_SUPERUSER" envDefault:"true"`

	// TokenField and SuperuserField are JMESPath expressions evaluated against login/refresh bodies.
	TokenField     string `env:"AUTH_TOKEN_FIELD"     envDefault:"access_token || accessToken"`
	SuperuserField string `env:"AUTH_SUPERUSER_FIELD" envDefault:"is_superuser || isSuperuser"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	a.LoginPath = ensureLeadingSlash(a.LoginPath, "/login")
	a.LogoutPath = ensureLeadingSlash(a.LogoutPath, "/logout")
	a.RefreshPath = ensureLeadingSlash(a.RefreshPath, "/refresh-token")
	if a.Timeout <= 0 {
		a.Timeout = defaultAuthTimeout
	}
	if strings.TrimSpace(a.TokenField) == "" {
		a.TokenField = "access_token || accessToken"
	}
	if strings.TrimSpace(a.SuperuserField) == "" {
		a.SuperuserField = "is_superuser || isSuperuser"
	}
}

func ensureLeadingSlash(p, fallback string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return fallback
	}
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}
