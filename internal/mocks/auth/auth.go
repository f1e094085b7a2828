package auth

// Package auth contains simple hand-written test doubles for session ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	domainauth "github.com/target/elearn-admin/internal/domain/auth"
	"github.com/target/elearn-admin/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthBackend  = (*FakeBackend)(nil)
	_ ports.MarkerStore  = (*MemoryMarkerStore)(nil)
	_ ports.TokenDecoder = StaticDecoder{}
	_ ports.Authority    = (*StaticAuthority)(nil)
)

// FakeBackend simulates the auth service with deterministic tokens.
// Tokens have the form "token-<n>" and decode with StaticDecoder.
type FakeBackend struct {
	LoginFunc   func(ctx context.Context, creds domainauth.Credentials) (domainauth.LoginGrant, error)
	RefreshFunc func(ctx context.Context) (domainauth.RefreshGrant, error)
	LogoutFunc  func(ctx context.Context) error

	// Superuser is reported by the default login.
	Superuser bool

	loginCalls   atomic.Int32
	refreshCalls atomic.Int32
	logoutCalls  atomic.Int32
	issued       atomic.Int32
}

// NewFakeBackend creates a FakeBackend that logs superusers in.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{Superuser: true}
}

func (f *FakeBackend) Login(ctx context.Context, creds domainauth.Credentials) (domainauth.LoginGrant, error) {
	f.loginCalls.Add(1)
	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, creds)
	}
	return domainauth.LoginGrant{
		AccessToken:    f.NextToken(),
		IsSuperuser:    f.Superuser,
		SuperuserKnown: true,
	}, nil
}

func (f *FakeBackend) Refresh(ctx context.Context) (domainauth.RefreshGrant, error) {
	f.refreshCalls.Add(1)
	if f.RefreshFunc != nil {
		return f.RefreshFunc(ctx)
	}
	return domainauth.RefreshGrant{AccessToken: f.NextToken()}, nil
}

func (f *FakeBackend) Logout(ctx context.Context) error {
	f.logoutCalls.Add(1)
	if f.LogoutFunc != nil {
		return f.LogoutFunc(ctx)
	}
	return nil
}

// NextToken returns a fresh deterministic token.
func (f *FakeBackend) NextToken() string {
	return fmt.Sprintf("token-%d", f.issued.Add(1))
}

// LoginCalls returns the number of Login calls.
func (f *FakeBackend) LoginCalls() int { return int(f.loginCalls.Load()) }

// RefreshCalls returns the number of Refresh calls.
func (f *FakeBackend) RefreshCalls() int { return int(f.refreshCalls.Load()) }

// LogoutCalls returns the number of Logout calls.
func (f *FakeBackend) LogoutCalls() int { return int(f.logoutCalls.Load()) }

// StaticDecoder decodes any token prefixed with "token-" into Claims.
// Tokens listed in Claims take precedence; "bad" tokens fail.
type StaticDecoder struct {
	Claims    map[string]domainauth.Claims
	Email     string
	Superuser *bool
}

// ErrUndecodable is returned by StaticDecoder for unknown tokens.
var ErrUndecodable = errors.New("token is not decodable")

func (d StaticDecoder) Decode(token string) (domainauth.Claims, error) {
	if c, ok := d.Claims[token]; ok {
		return c, nil
	}
	if !strings.HasPrefix(token, "token-") {
		return domainauth.Claims{}, ErrUndecodable
	}
	email := d.Email
	if email == "" {
		email = "admin@x.com"
	}
	return domainauth.Claims{
		ID:          "user-1",
		Email:       email,
		IsSuperuser: d.Superuser,
	}, nil
}

// MemoryMarkerStore is an in-memory marker store for unit tests.
type MemoryMarkerStore struct {
	mu      sync.Mutex
	marker  *domainauth.IdentityMarker
	SaveErr error
}

// NewMemoryMarkerStore creates an empty in-memory marker store.
func NewMemoryMarkerStore() *MemoryMarkerStore {
	return &MemoryMarkerStore{}
}

func (m *MemoryMarkerStore) Save(_ context.Context, marker domainauth.IdentityMarker) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marker = &marker
	return nil
}

func (m *MemoryMarkerStore) Load(_ context.Context) (domainauth.IdentityMarker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.marker == nil {
		return domainauth.IdentityMarker{}, ports.ErrMarkerNotFound
	}
	return *m.marker, nil
}

func (m *MemoryMarkerStore) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marker = nil
	return nil
}

// Has reports whether a marker is stored.
func (m *MemoryMarkerStore) Has() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.marker != nil
}

// StaticAuthority is a ports.Authority whose refresh result is scripted.
type StaticAuthority struct {
	mu          sync.Mutex
	token       string
	RefreshFunc func(ctx context.Context, staleToken string) (string, error)

	refreshCalls atomic.Int32
	endCalls     atomic.Int32
}

// NewStaticAuthority creates an authority holding token.
func NewStaticAuthority(token string) *StaticAuthority {
	return &StaticAuthority{token: token}
}

func (a *StaticAuthority) AccessToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *StaticAuthority) RefreshIfStale(ctx context.Context, staleToken string) (string, error) {
	a.refreshCalls.Add(1)
	if a.RefreshFunc == nil {
		return "", errors.New("refresh not configured")
	}
	tok, err := a.RefreshFunc(ctx, staleToken)
	if err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = tok
	return tok, nil
}

func (a *StaticAuthority) EndSession(_ context.Context, token string) bool {
	a.endCalls.Add(1)
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token != "" && a.token != token {
		return false
	}
	a.token = ""
	return true
}

// SetToken replaces the held token, as a fresh login would.
func (a *StaticAuthority) SetToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
}

// RefreshCalls returns the number of RefreshIfStale calls.
func (a *StaticAuthority) RefreshCalls() int { return int(a.refreshCalls.Load()) }

// EndSessionCalls returns the number of EndSession calls.
func (a *StaticAuthority) EndSessionCalls() int { return int(a.endCalls.Load()) }
