package devbackend

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

const refreshTokenType = "refresh"

// AccessClaims are carried by access tokens.
type AccessClaims struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	IsSuperuser bool   `json:"isSuperuser"`
	jwt.RegisteredClaims
}

// RefreshClaims are carried by refresh tokens; the token ID identifies the
// server-side refresh session.
type RefreshClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies dev tokens.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	parser     *jwt.Parser
}

// NewIssuer creates an Issuer. now defaults to time.Now.
func NewIssuer(secret string, accessTTL, refreshTTL time.Duration, now func() time.Time) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("signing secret is required")
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
			jwt.WithTimeFunc(now),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// IssueAccess signs an access token for u.
func (i *Issuer) IssueAccess(u User) (string, error) {
	now := i.now()
	claims := &AccessClaims{
		ID:          u.ID,
		Email:       u.Email,
		IsSuperuser: u.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("couldn't sign access JWT: %w", err)
	}
	return signed, nil
}

// IssueRefresh signs a refresh token for u and returns it with its token ID.
func (i *Issuer) IssueRefresh(u User) (token, jti string, err error) {
	now := i.now()
	jti = uuid.NewString()
	claims := &RefreshClaims{
		Type: refreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
		},
	}
	token, err = jwt.NewWithClaims(jwtSigningMethod, claims).SignedString(i.secret)
	if err != nil {
		return "", "", fmt.Errorf("couldn't sign refresh JWT: %w", err)
	}
	return token, jti, nil
}

// ParseAccess verifies an access token.
func (i *Issuer) ParseAccess(token string) (*AccessClaims, error) {
	claims := new(AccessClaims)
	if _, err := i.parser.ParseWithClaims(token, claims, i.key); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token.
func (i *Issuer) ParseRefresh(token string) (*RefreshClaims, error) {
	claims := new(RefreshClaims)
	if _, err := i.parser.ParseWithClaims(token, claims, i.key); err != nil {
		return nil, err
	}
	if claims.Type != refreshTokenType {
		return nil, errors.New("not a refresh token")
	}
	return claims, nil
}

func (i *Issuer) key(*jwt.Token) (any, error) {
	return i.secret, nil
}
