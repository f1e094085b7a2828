package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	domainauth "github.com/target/elearn-admin/internal/domain/auth"
	apperrors "github.com/target/elearn-admin/internal/errors"
	"github.com/target/elearn-admin/internal/ports"
)

const (
	// DefaultCallTimeout bounds login, refresh and logout calls to the auth backend.
	DefaultCallTimeout = 15 * time.Second

	defaultLoginFailure = "Invalid credentials or server error"
	notAdminMessage     = "Not authorized as admin"
	refreshFlightKey    = "refresh"
)

var _ ports.Authority = (*SessionManager)(nil)

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Backend ports.AuthBackend
	Decoder ports.TokenDecoder
	Markers ports.MarkerStore
	Logger  *slog.Logger
	Clock   func() time.Time

	// RequireSuperuser rejects logins by identities that are not superusers.
	RequireSuperuser bool
	// CallTimeout bounds each backend call; DefaultCallTimeout when zero.
	CallTimeout time.Duration
	// Validator defaults to a fresh validator.Validate.
	Validator *validator.Validate
}

// SessionManager owns the single console session: the access token, the identity
// decoded from it, and the persisted identity marker. It is safe for concurrent use.
type SessionManager struct {
	backend          ports.AuthBackend
	decoder          ports.TokenDecoder
	markers          ports.MarkerStore
	logger           *slog.Logger
	clock            func() time.Time
	validate         *validator.Validate
	requireSuperuser bool
	callTimeout      time.Duration

	flight singleflight.Group

	mu        sync.RWMutex
	token     string
	user      *domainauth.Identity
	status    domainauth.Status
	sessionID string
	issuedAt  time.Time
	expiresAt time.Time
	// epoch changes whenever a token is installed or cleared; a refresh that
	// started under an older epoch never overwrites the newer state.
	epoch uint64
	// markerSuperuser seeds the superuser flag for the startup refresh,
	// whose response carries no flag.
	markerSuperuser bool
}

// NewSessionManager constructs a SessionManager in the unauthenticated state.
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	validate := opts.Validator
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	return &SessionManager{
		backend:          opts.Backend,
		decoder:          opts.Decoder,
		markers:          opts.Markers,
		logger:           logger.With("component", "session"),
		clock:            clock,
		validate:         validate,
		requireSuperuser: opts.RequireSuperuser,
		callTimeout:      timeout,
		status:           domainauth.StatusUnauthenticated,
	}
}

// Init performs the startup check. With a persisted marker the session is
// loading while a silent refresh runs; without one it stays unauthenticated.
func (m *SessionManager) Init(ctx context.Context) domainauth.Status {
	if m.Status() == domainauth.StatusAuthenticated {
		return domainauth.StatusAuthenticated
	}

	marker, err := m.markers.Load(ctx)
	if err != nil {
		if !errors.Is(err, ports.ErrMarkerNotFound) {
			m.logger.WarnContext(ctx, "failed to load identity marker", "error", err)
		}
		m.setStatus(domainauth.StatusUnauthenticated)
		return domainauth.StatusUnauthenticated
	}

	m.mu.Lock()
	m.status = domainauth.StatusLoading
	m.markerSuperuser = marker.User.IsSuperuser
	m.mu.Unlock()

	m.logger.DebugContext(ctx, "identity marker found, attempting silent refresh", "user_id", marker.User.ID)
	if _, err := m.Refresh(ctx); err != nil {
		m.logger.InfoContext(ctx, "silent refresh failed", "error", err)
	}

	// Refresh always installs or clears; guard against a marker-less clear path.
	if m.Status() == domainauth.StatusLoading {
		m.setStatus(domainauth.StatusUnauthenticated)
	}
	return m.Status()
}

// Login authenticates with the backend and installs the resulting session.
func (m *SessionManager) Login(ctx context.Context, identifier, secret string) (domainauth.Session, error) {
	creds := domainauth.Credentials{Identifier: strings.TrimSpace(identifier), Secret: secret}
	if err := m.validate.StructCtx(ctx, creds); err != nil {
		return domainauth.Session{}, credentialsError(err)
	}

	callCtx, cancel := context.WithTimeout(ctx, m.callTimeout)
	defer cancel()

	grant, err := m.backend.Login(callCtx, creds)
	if err != nil {
		m.logger.WarnContext(ctx, "login request failed", "error", err)
		return domainauth.Session{}, loginFailure(err)
	}
	if grant.AccessToken == "" {
		return domainauth.Session{}, apperrors.MalformedToken("login response did not include an access token")
	}
	if m.requireSuperuser && !grant.IsSuperuser {
		m.logger.InfoContext(ctx, "login rejected: identity is not a superuser", "superuser_flag_present", grant.SuperuserKnown)
		return domainauth.Session{}, apperrors.NotAuthorized(notAdminMessage)
	}

	claims, err := m.decoder.Decode(grant.AccessToken)
	if err != nil {
		return domainauth.Session{}, apperrors.Wrap(err, apperrors.ErrCodeMalformedToken, "access token could not be decoded")
	}
	identity := claims.Identity(grant.IsSuperuser)
	if m.requireSuperuser && !identity.IsSuperuser {
		return domainauth.Session{}, apperrors.NotAuthorized(notAdminMessage)
	}

	m.mu.Lock()
	sess := m.installLocked(grant.AccessToken, identity, claims.ExpiresAt)
	m.mu.Unlock()

	m.persistMarker(ctx, identity)
	m.logger.InfoContext(ctx, "session established", "user_id", identity.ID, "session_id", sess.ID)
	return sess, nil
}

// Logout notifies the backend on a best-effort basis and always clears the
// session and its marker. Calling it repeatedly is harmless.
func (m *SessionManager) Logout(ctx context.Context) {
	m.notifyBackendLogout(ctx)

	m.mu.Lock()
	m.clearLocked()
	m.mu.Unlock()

	m.deleteMarker(ctx)
	m.logger.InfoContext(ctx, "session cleared")
}

// EndSession logs out only while the session still holds token (or none at
// all). A session installed after token was issued is kept and false is returned.
func (m *SessionManager) EndSession(ctx context.Context, token string) bool {
	m.mu.Lock()
	if m.token != "" && m.token != token {
		m.mu.Unlock()
		m.logger.InfoContext(ctx, "keeping newer session")
		return false
	}
	m.clearLocked()
	m.mu.Unlock()

	m.deleteMarker(ctx)
	m.notifyBackendLogout(ctx)
	m.logger.InfoContext(ctx, "session cleared")
	return true
}

func (m *SessionManager) notifyBackendLogout(ctx context.Context) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.callTimeout)
	defer cancel()

	if err := m.backend.Logout(callCtx); err != nil {
		m.logger.WarnContext(ctx, "backend logout failed", "error", err)
	}
}

// Refresh obtains a new access token using the backend's out-of-band credential.
// Concurrent callers share one backend call and its result. The call is not
// canceled by the caller's context; it is bounded by the call timeout.
// On failure the session is cleared and a refresh_failed error is returned.
func (m *SessionManager) Refresh(ctx context.Context) (string, error) {
	return m.refresh(ctx, "", false)
}

// RefreshIfStale returns the current token when it already differs from
// staleToken; otherwise it refreshes. Callers racing on the same expired
// token trigger at most one backend call. When staleToken was a real token
// and the session has since ended, it fails without contacting the backend.
func (m *SessionManager) RefreshIfStale(ctx context.Context, staleToken string) (string, error) {
	return m.refresh(ctx, staleToken, true)
}

func (m *SessionManager) refresh(ctx context.Context, staleToken string, onlyIfStale bool) (string, error) {
	if onlyIfStale {
		if current, done, err := m.resolveStale(staleToken); done {
			return current, err
		}
	}

	v, err, shared := m.flight.Do(refreshFlightKey, func() (any, error) {
		// Re-checked inside the flight: a refresh may have completed since the fast path.
		if onlyIfStale {
			if current, done, err := m.resolveStale(staleToken); done {
				return current, err
			}
		}
		return m.doRefresh(context.WithoutCancel(ctx))
	})
	if shared {
		m.logger.DebugContext(ctx, "joined in-flight refresh")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// resolveStale settles a stale-token refresh without a backend call when it can:
// a newer token is returned as is, and a session that ended after staleToken
// was issued stays ended.
func (m *SessionManager) resolveStale(staleToken string) (string, bool, error) {
	current := m.AccessToken()
	switch {
	case current != "" && current != staleToken:
		return current, true, nil
	case current == "" && staleToken != "":
		return "", true, apperrors.RefreshFailed("session ended before refresh")
	}
	return "", false, nil
}

func (m *SessionManager) doRefresh(ctx context.Context) (string, error) {
	m.mu.RLock()
	epoch := m.epoch
	m.mu.RUnlock()

	callCtx, cancel := context.WithTimeout(ctx, m.callTimeout)
	defer cancel()

	grant, err := m.backend.Refresh(callCtx)
	if err != nil {
		return "", m.failRefresh(ctx, epoch, err)
	}
	if grant.AccessToken == "" {
		return "", m.failRefresh(ctx, epoch, errors.New("refresh response did not include an access token"))
	}
	claims, err := m.decoder.Decode(grant.AccessToken)
	if err != nil {
		return "", m.failRefresh(ctx, epoch, apperrors.Wrap(err, apperrors.ErrCodeMalformedToken, "access token could not be decoded"))
	}

	m.mu.Lock()
	if m.epoch != epoch {
		current := m.token
		m.mu.Unlock()
		m.logger.InfoContext(ctx, "discarding refresh result: session changed while refreshing")
		if current == "" {
			return "", apperrors.RefreshFailed("session ended while refreshing")
		}
		return current, nil
	}
	fallback := m.markerSuperuser
	if m.user != nil {
		fallback = m.user.IsSuperuser
	}
	identity := claims.Identity(fallback)
	sess := m.installLocked(grant.AccessToken, identity, claims.ExpiresAt)
	m.mu.Unlock()

	m.persistMarker(ctx, identity)
	m.logger.DebugContext(ctx, "access token refreshed", "user_id", identity.ID, "session_id", sess.ID)
	return grant.AccessToken, nil
}

func (m *SessionManager) failRefresh(ctx context.Context, epoch uint64, cause error) error {
	m.mu.Lock()
	cleared := m.epoch == epoch
	if cleared {
		m.clearLocked()
	}
	m.mu.Unlock()

	if cleared {
		m.deleteMarker(ctx)
	}
	m.logger.WarnContext(ctx, "refresh failed",
		"error", cause,
		"error_type", apperrors.Classify(cause),
		"session_cleared", cleared)
	return &apperrors.AppError{
		Code:    apperrors.ErrCodeRefreshFailed,
		Message: "session refresh failed",
		Cause:   cause,
	}
}

// AttachAuthority sets the bearer Authorization header when a token is held.
// Without a token the request is left unauthenticated.
func (m *SessionManager) AttachAuthority(req *http.Request) {
	tok := m.AccessToken()
	if tok == "" {
		return
	}
	(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"}).SetAuthHeader(req)
}

// AccessToken returns the current token or "".
func (m *SessionManager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Status returns the lifecycle state.
func (m *SessionManager) Status() domainauth.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// User returns a copy of the current identity, or nil.
func (m *SessionManager) User() *domainauth.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Snapshot returns a copy of the session state.
func (m *SessionManager) Snapshot() domainauth.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// TokenSource adapts the session for oauth2-aware clients.
func (m *SessionManager) TokenSource() oauth2.TokenSource {
	return sessionTokenSource{m: m}
}

type sessionTokenSource struct {
	m *SessionManager
}

func (s sessionTokenSource) Token() (*oauth2.Token, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	if s.m.token == "" {
		return nil, apperrors.NotAuthorized("no active session")
	}
	return &oauth2.Token{
		AccessToken: s.m.token,
		TokenType:   "Bearer",
		Expiry:      s.m.expiresAt,
	}, nil
}

func (m *SessionManager) installLocked(token string, identity domainauth.Identity, expiresAt time.Time) domainauth.Session {
	m.epoch++
	m.token = token
	m.user = &identity
	m.status = domainauth.StatusAuthenticated
	m.sessionID = uuid.NewString()
	m.issuedAt = m.clock()
	m.expiresAt = expiresAt
	return m.snapshotLocked()
}

func (m *SessionManager) clearLocked() {
	m.epoch++
	m.token = ""
	m.user = nil
	m.status = domainauth.StatusUnauthenticated
	m.sessionID = ""
	m.issuedAt = time.Time{}
	m.expiresAt = time.Time{}
	m.markerSuperuser = false
}

func (m *SessionManager) snapshotLocked() domainauth.Session {
	sess := domainauth.Session{
		ID:          m.sessionID,
		AccessToken: m.token,
		Status:      m.status,
		IssuedAt:    m.issuedAt,
	}
	if m.user != nil {
		u := *m.user
		sess.User = &u
	}
	return sess
}

func (m *SessionManager) setStatus(s domainauth.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = s
}

func (m *SessionManager) persistMarker(ctx context.Context, identity domainauth.Identity) {
	marker := domainauth.IdentityMarker{User: identity, SavedAt: m.clock()}
	if err := m.markers.Save(ctx, marker); err != nil {
		m.logger.WarnContext(ctx, "failed to persist identity marker", "error", err)
	}
}

func (m *SessionManager) deleteMarker(ctx context.Context) {
	if err := m.markers.Delete(context.WithoutCancel(ctx)); err != nil {
		m.logger.WarnContext(ctx, "failed to delete identity marker", "error", err)
	}
}

// loginFailure hides transport details and keeps the backend's own message.
func loginFailure(err error) error {
	var be *ports.BackendError
	if errors.As(err, &be) && be.Detail != "" {
		return apperrors.InvalidCredentials(be.Detail)
	}
	return apperrors.InvalidCredentials(defaultLoginFailure)
}

func credentialsError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := strings.ToLower(verrs[0].Field())
		return apperrors.ValidationField(field, fmt.Sprintf("%s is required", field))
	}
	return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid credentials input")
}
