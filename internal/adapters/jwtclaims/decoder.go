// Package jwtclaims reads identity claims from access tokens without verifying them.
// Signature checks belong to the API that issued the token; the console only needs
// the identity fields for display and privilege gating.
package jwtclaims

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	domainauth "github.com/target/elearn-admin/internal/domain/auth"
	"github.com/target/elearn-admin/internal/ports"
)

var _ ports.TokenDecoder = (*Decoder)(nil)

// ErrMissingIdentity is returned when a token carries neither an id nor a subject.
var ErrMissingIdentity = errors.New("token has no identity claim")

// Decoder decodes JWT payloads into domain claims.
type Decoder struct {
	parser *jwt.Parser
}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{parser: jwt.NewParser()}
}

// Decode parses token and extracts id (or sub), email, superuser flag and expiry.
func (d *Decoder) Decode(token string) (domainauth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domainauth.Claims{}, errors.New("token is empty")
	}

	mc := jwt.MapClaims{}
	if _, _, err := d.parser.ParseUnverified(token, mc); err != nil {
		return domainauth.Claims{}, fmt.Errorf("parse token: %w", err)
	}

	id := stringClaim(mc, "id")
	if id == "" {
		id = stringClaim(mc, "user_id")
	}
	if id == "" {
		id, _ = mc.GetSubject()
	}
	if id == "" {
		return domainauth.Claims{}, ErrMissingIdentity
	}

	claims := domainauth.Claims{
		ID:          id,
		Email:       stringClaim(mc, "email"),
		IsSuperuser: boolClaim(mc, "is_superuser", "isSuperuser"),
	}

	exp, err := mc.GetExpirationTime()
	if err != nil {
		return domainauth.Claims{}, fmt.Errorf("read exp: %w", err)
	}
	if exp != nil {
		claims.ExpiresAt = exp.Time
	}

	return claims, nil
}

// stringClaim reads a claim that may be encoded as a string or a number.
func stringClaim(mc jwt.MapClaims, key string) string {
	switch v := mc[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func boolClaim(mc jwt.MapClaims, keys ...string) *bool {
	for _, key := range keys {
		switch v := mc[key].(type) {
		case bool:
			return &v
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return &b
			}
		}
	}
	return nil
}
