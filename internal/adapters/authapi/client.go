// Package authapi is the HTTP adapter for the collaborator authentication backend.
package authapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/net/publicsuffix"

	domainauth "github.com/target/elearn-admin/internal/domain/auth"
	apperrors "github.com/target/elearn-admin/internal/errors"
	"github.com/target/elearn-admin/internal/ports"
)

var _ ports.AuthBackend = (*Client)(nil)

const (
	defaultTokenField     = "access_token || accessToken"
	defaultSuperuserField = "is_superuser || isSuperuser"

	// RequestIDHeader is set on every outbound auth call.
	RequestIDHeader = "X-Request-ID"
)

// ClientOptions configures the auth backend client.
type ClientOptions struct {
	BaseURL     string
	LoginPath   string
	LogoutPath  string
	RefreshPath string
	Timeout     time.Duration
	UserAgent   string

	// TokenField and SuperuserField are JMESPath expressions over the JSON body.
	TokenField     string
	SuperuserField string

	// HTTPClient overrides the underlying client (tests). Its Jar is replaced.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the auth backend. It owns the cookie jar that carries the
// HTTP-only refresh credential between calls.
type Client struct {
	http           *resty.Client
	loginPath      string
	logoutPath     string
	refreshPath    string
	tokenField     string
	superuserField string
	logger         *slog.Logger
}

// NewClient creates an auth backend client.
func NewClient(opts ClientOptions) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("auth base URL is required")
	}

	tokenField := firstNonEmpty(opts.TokenField, defaultTokenField)
	superuserField := firstNonEmpty(opts.SuperuserField, defaultSuperuserField)
	for _, expr := range []string{tokenField, superuserField} {
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("compile field expression %q: %w", expr, err)
		}
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetCookieJar(jar).
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}
	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if r.Header.Get(RequestIDHeader) == "" {
			r.SetHeader(RequestIDHeader, uuid.NewString())
		}
		return nil
	})

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		http:           rc,
		loginPath:      firstNonEmpty(opts.LoginPath, "/login"),
		logoutPath:     firstNonEmpty(opts.LogoutPath, "/logout"),
		refreshPath:    firstNonEmpty(opts.RefreshPath, "/refresh-token"),
		tokenField:     tokenField,
		superuserField: superuserField,
		logger:         logger.With("component", "authapi"),
	}, nil
}

// Login posts form-encoded credentials.
// A 2xx body without a token yields a grant with an empty AccessToken.
func (c *Client) Login(ctx context.Context, creds domainauth.Credentials) (domainauth.LoginGrant, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"username": creds.Identifier,
			"password": creds.Secret,
		}).
		Post(c.loginPath)
	if err != nil {
		return domainauth.LoginGrant{}, apperrors.MapTransportError(err)
	}
	if !resp.IsSuccess() {
		return domainauth.LoginGrant{}, backendError(resp)
	}

	body, err := decodeBody(resp.Body())
	if err != nil {
		c.logger.WarnContext(ctx, "login response is not JSON", "status", resp.StatusCode(), "error", err)
		return domainauth.LoginGrant{}, nil
	}

	grant := domainauth.LoginGrant{AccessToken: c.searchString(body, c.tokenField)}
	grant.IsSuperuser, grant.SuperuserKnown = c.searchBool(body, c.superuserField)
	return grant, nil
}

// Refresh exchanges the refresh cookie for a new access token.
func (c *Client) Refresh(ctx context.Context) (domainauth.RefreshGrant, error) {
	resp, err := c.http.R().SetContext(ctx).Post(c.refreshPath)
	if err != nil {
		return domainauth.RefreshGrant{}, apperrors.MapTransportError(err)
	}
	if !resp.IsSuccess() {
		return domainauth.RefreshGrant{}, backendError(resp)
	}

	body, err := decodeBody(resp.Body())
	if err != nil {
		c.logger.WarnContext(ctx, "refresh response is not JSON", "status", resp.StatusCode(), "error", err)
		return domainauth.RefreshGrant{}, nil
	}
	return domainauth.RefreshGrant{AccessToken: c.searchString(body, c.tokenField)}, nil
}

// Logout asks the backend to drop the refresh cookie.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Post(c.logoutPath)
	if err != nil {
		return apperrors.MapTransportError(err)
	}
	if !resp.IsSuccess() {
		return backendError(resp)
	}
	return nil
}

func (c *Client) searchString(body any, expr string) string {
	v, err := jmespath.Search(expr, body)
	if err != nil {
		c.logger.Debug("field expression failed", "expr", expr, "error", err)
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// searchBool returns the flag and whether the body carried it at all.
func (c *Client) searchBool(body any, expr string) (value, known bool) {
	v, err := jmespath.Search(expr, body)
	if err != nil {
		c.logger.Debug("field expression failed", "expr", expr, "error", err)
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, perr := strconv.ParseBool(b)
		if perr != nil {
			return false, false
		}
		return parsed, true
	default:
		return false, false
	}
}

func decodeBody(raw []byte) (any, error) {
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return body, nil
}

func backendError(resp *resty.Response) error {
	return &ports.BackendError{
		StatusCode: resp.StatusCode(),
		Detail:     apperrors.ResponseDetail(resp.Body()),
	}
}

func firstNonEmpty(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
