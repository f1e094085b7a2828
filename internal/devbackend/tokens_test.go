package devbackend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/elearn-admin/internal/testutil"
)

func TestIssuer_AccessRoundTrip(t *testing.T) {
	clock := testutil.NewClock(time.Now())
	issuer, err := NewIssuer("secret", time.Minute, time.Hour, clock.Now)
	require.NoError(t, err)

	u := User{ID: "1", Email: "admin@example.com", IsSuperuser: true}
	tok, err := issuer.IssueAccess(u)
	require.NoError(t, err)

	claims, err := issuer.ParseAccess(tok)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.ID)
	assert.Equal(t, "1", claims.Subject)
	assert.True(t, claims.IsSuperuser)

	clock.Advance(2 * time.Minute)
	_, err = issuer.ParseAccess(tok)
	assert.Error(t, err, "expired token is rejected")
}

func TestIssuer_RefreshToken(t *testing.T) {
	issuer, err := NewIssuer("secret", time.Minute, time.Hour, nil)
	require.NoError(t, err)

	u := User{ID: "2"}
	tok, jti, err := issuer.IssueRefresh(u)
	require.NoError(t, err)
	assert.NotEmpty(t, jti)

	claims, err := issuer.ParseRefresh(tok)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, "2", claims.Subject)

	access, err := issuer.IssueAccess(u)
	require.NoError(t, err)
	_, err = issuer.ParseRefresh(access)
	assert.Error(t, err, "access tokens are not refresh tokens")
}

func TestIssuer_WrongSecret(t *testing.T) {
	a, err := NewIssuer("one", time.Minute, time.Hour, nil)
	require.NoError(t, err)
	b, err := NewIssuer("two", time.Minute, time.Hour, nil)
	require.NoError(t, err)

	tok, err := a.IssueAccess(User{ID: "1"})
	require.NoError(t, err)
	_, err = b.ParseAccess(tok)
	assert.Error(t, err)

	_, err = NewIssuer("", time.Minute, time.Hour, nil)
	assert.Error(t, err)
}
