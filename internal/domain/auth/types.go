package auth

// Package auth contains domain-level types for the console session lifecycle.
// It is pure and free of framework/adapter concerns.

import "time"

// Status is the lifecycle state of the console session.
type Status string

const (
	// StatusLoading is reported while the startup silent refresh is in flight.
	StatusLoading Status = "loading"
	// StatusAuthenticated means an access token and decoded identity are installed.
	StatusAuthenticated Status = "authenticated"
	// StatusUnauthenticated means no access token is held.
	StatusUnauthenticated Status = "unauthenticated"
)

// Identity is the principal decoded from an access token.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	IsSuperuser bool   `json:"isSuperuser"`
}

// Session is a point-in-time snapshot of the client session.
// User is non-nil if and only if AccessToken is non-empty.
type Session struct {
	// ID is a client-local identifier regenerated whenever a new token is installed.
	ID          string
	AccessToken string
	User        *Identity
	Status      Status
	IssuedAt    time.Time
}

// IsAuthenticated reports whether the snapshot carries a usable token and identity.
func (s Session) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.AccessToken != "" && s.User != nil
}

// Credentials are the login inputs collected by the console.
type Credentials struct {
	Identifier string `validate:"required"`
	Secret     string `validate:"required"`
}

// IdentityMarker is the durable sentinel written after a successful login or refresh.
// It only decides whether a silent refresh is attempted at startup and is never a credential.
type IdentityMarker struct {
	User    Identity  `json:"user"`
	SavedAt time.Time `json:"saved_at"`
}

// LoginGrant is what the auth backend returns for a successful login.
type LoginGrant struct {
	AccessToken string
	IsSuperuser bool
	// SuperuserKnown is false when the response carried no superuser flag at all.
	SuperuserKnown bool
}

// RefreshGrant is what the auth backend returns for a successful refresh.
type RefreshGrant struct {
	AccessToken string
}

// Claims are the identity fields read from an access token payload.
// IsSuperuser is nil when the token carries no superuser claim.
type Claims struct {
	ID          string
	Email       string
	IsSuperuser *bool
	ExpiresAt   time.Time
}

// Identity converts claims into an Identity, using fallback when the token has no superuser claim.
func (c Claims) Identity(fallbackSuperuser bool) Identity {
	superuser := fallbackSuperuser
	if c.IsSuperuser != nil {
		superuser = *c.IsSuperuser
	}
	return Identity{ID: c.ID, Email: c.Email, IsSuperuser: superuser}
}
