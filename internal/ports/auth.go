package ports

// Package ports defines interfaces (hexagonal ports) for session-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"
	"fmt"

	domainauth "github.com/target/elearn-admin/internal/domain/auth"
)

// ErrMarkerNotFound is returned by MarkerStore.Load when no marker is persisted.
var ErrMarkerNotFound = errors.New("identity marker not found")

// AuthBackend talks to the collaborator authentication service.
// The refresh credential is out of band (an HTTP-only cookie held by the implementation).
type AuthBackend interface {
	// Login submits form-encoded credentials and returns the grant from a 2xx response.
	Login(ctx context.Context, creds domainauth.Credentials) (domainauth.LoginGrant, error)

	// Refresh exchanges the out-of-band refresh credential for a new access token.
	Refresh(ctx context.Context) (domainauth.RefreshGrant, error)

	// Logout asks the backend to drop the refresh credential.
	Logout(ctx context.Context) error
}

// TokenDecoder reads identity claims from an access token payload.
type TokenDecoder interface {
	Decode(token string) (domainauth.Claims, error)
}

// MarkerStore persists the identity marker used to decide on a startup silent refresh.
type MarkerStore interface {
	Save(ctx context.Context, marker domainauth.IdentityMarker) error
	// Load returns ErrMarkerNotFound when nothing is stored.
	Load(ctx context.Context) (domainauth.IdentityMarker, error)
	Delete(ctx context.Context) error
}

// Authority is the view of the session that request-issuing collaborators depend on.
type Authority interface {
	// AccessToken returns the current bearer token, or "" when logged out.
	AccessToken() string

	// RefreshIfStale returns a token newer than staleToken, refreshing the session if needed.
	RefreshIfStale(ctx context.Context, staleToken string) (string, error)

	// EndSession clears the session unless it has moved on from token.
	// It reports whether the session was ended; backend failures are not reported.
	EndSession(ctx context.Context, token string) bool
}

// BackendError is a non-2xx answer from the auth backend.
// Detail carries the server-provided message, when there is one.
type BackendError struct {
	StatusCode int
	Detail     string
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("auth backend returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("auth backend returned %d", e.StatusCode)
}
