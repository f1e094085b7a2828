package devbackend_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/target/elearn-admin/config"
	"github.com/target/elearn-admin/internal/adapters/authapi"
	"github.com/target/elearn-admin/internal/adapters/jwtclaims"
	"github.com/target/elearn-admin/internal/apiclient"
	"github.com/target/elearn-admin/internal/devbackend"
	domainauth "github.com/target/elearn-admin/internal/domain/auth"
	apperrors "github.com/target/elearn-admin/internal/errors"
	authmocks "github.com/target/elearn-admin/internal/mocks/auth"
	"github.com/target/elearn-admin/internal/service"
	"github.com/target/elearn-admin/internal/testutil"
)

type stack struct {
	clock    *testutil.Clock
	backend  *authapi.Client
	server   *httptest.Server
	sessions *service.SessionManager
	markers  *authmocks.MemoryMarkerStore
	api      *apiclient.Client
}

func devConfig() config.DevBackendConfig {
	return config.DevBackendConfig{
		Secret:          "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		AdminEmail:      "admin@x.com",
		AdminPassword:   "pw",
		UserEmail:       "teacher@x.com",
		UserPassword:    "pw",
	}
}

func newStack(t *testing.T) *stack {
	t.Helper()
	clock := testutil.NewClock(time.Now())

	srv, err := devbackend.New(devbackend.Options{Config: devConfig(), Clock: clock.Now})
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	backend, err := authapi.NewClient(authapi.ClientOptions{BaseURL: ts.URL + "/api/auth", Timeout: 5 * time.Second})
	require.NoError(t, err)

	markers := authmocks.NewMemoryMarkerStore()
	sessions := service.NewSessionManager(service.SessionManagerOptions{
		Backend:          backend,
		Decoder:          jwtclaims.NewDecoder(),
		Markers:          markers,
		RequireSuperuser: true,
	})

	api, err := apiclient.NewClient(apiclient.ClientOptions{BaseURL: ts.URL + "/api/admin", Authority: sessions})
	require.NoError(t, err)

	return &stack{clock: clock, backend: backend, server: ts, sessions: sessions, markers: markers, api: api}
}

func TestEndToEnd_LoginListAndExpiry(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	sess, err := s.sessions.Login(ctx, "admin@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "admin@x.com", sess.User.Email)
	assert.True(t, sess.User.IsSuperuser)

	courses, err := s.api.List(ctx, apiclient.ResourceCourses, nil)
	require.NoError(t, err)
	assert.Len(t, courses, 2)

	before := s.sessions.AccessToken()
	s.clock.Advance(2 * time.Minute)

	students, err := s.api.List(ctx, apiclient.ResourceStudents, nil)
	require.NoError(t, err, "expired access token is refreshed transparently")
	assert.Len(t, students, 1)
	assert.NotEqual(t, before, s.sessions.AccessToken())
	assert.Equal(t, domainauth.StatusAuthenticated, s.sessions.Status())
}

func TestEndToEnd_RefreshCookieExpiredEndsSession(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.sessions.Login(ctx, "admin@x.com", "pw")
	require.NoError(t, err)

	s.clock.Advance(2 * time.Hour)

	_, err = s.api.List(ctx, apiclient.ResourceCourses, nil)
	assert.True(t, apperrors.IsNotAuthorized(err))
	assert.Equal(t, domainauth.StatusUnauthenticated, s.sessions.Status())
	assert.False(t, s.markers.Has())
}

func TestEndToEnd_NonSuperuserRejected(t *testing.T) {
	s := newStack(t)

	_, err := s.sessions.Login(context.Background(), "teacher@x.com", "pw")
	assert.True(t, apperrors.IsNotAuthorized(err))
	assert.Equal(t, "Not authorized as admin", apperrors.GetMessage(err))
	assert.Empty(t, s.sessions.AccessToken())
}

func TestEndToEnd_BadPassword(t *testing.T) {
	s := newStack(t)

	_, err := s.sessions.Login(context.Background(), "admin@x.com", "nope")
	assert.True(t, apperrors.IsInvalidCredentials(err))
	assert.Equal(t, "Incorrect email or password", apperrors.GetMessage(err))
}

func TestEndToEnd_LogoutRevokesRefresh(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.sessions.Login(ctx, "admin@x.com", "pw")
	require.NoError(t, err)

	s.sessions.Logout(ctx)
	assert.Equal(t, domainauth.StatusUnauthenticated, s.sessions.Status())

	_, err = s.sessions.Refresh(ctx)
	assert.True(t, apperrors.IsRefreshFailed(err))
}

func TestEndToEnd_SilentRefreshAtStartup(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.sessions.Login(ctx, "admin@x.com", "pw")
	require.NoError(t, err)

	// A restarted console keeps the marker and the cookie jar but no token.
	restarted := service.NewSessionManager(service.SessionManagerOptions{
		Backend:          s.backend,
		Decoder:          jwtclaims.NewDecoder(),
		Markers:          s.markers,
		RequireSuperuser: true,
	})
	assert.Equal(t, domainauth.StatusAuthenticated, restarted.Init(ctx))
	require.NotNil(t, restarted.User())
	assert.Equal(t, "admin@x.com", restarted.User().Email)
	assert.True(t, restarted.User().IsSuperuser)
}

func TestEndToEnd_SilentRefreshWithoutCookie(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.sessions.Login(ctx, "admin@x.com", "pw")
	require.NoError(t, err)

	freshJar, err := authapi.NewClient(authapi.ClientOptions{BaseURL: s.server.URL + "/api/auth"})
	require.NoError(t, err)
	restarted := service.NewSessionManager(service.SessionManagerOptions{
		Backend:          freshJar,
		Decoder:          jwtclaims.NewDecoder(),
		Markers:          s.markers,
		RequireSuperuser: true,
	})
	assert.Equal(t, domainauth.StatusUnauthenticated, restarted.Init(ctx))
	assert.False(t, s.markers.Has(), "stale marker is removed")
}

func TestEndToEnd_CRUD(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.sessions.Login(ctx, "admin@x.com", "pw")
	require.NoError(t, err)

	created, err := s.api.Create(ctx, apiclient.ResourceCertifications, map[string]any{"name": "Go Basics"})
	require.NoError(t, err)
	id := created.ID()
	require.NotEmpty(t, id)

	updated, err := s.api.Update(ctx, apiclient.ResourceCertifications, id, map[string]any{"level": "beginner"})
	require.NoError(t, err)
	assert.Equal(t, "Go Basics", updated["name"])
	assert.Equal(t, "beginner", updated["level"])

	settings, err := s.api.Update(ctx, apiclient.ResourceSettings, "", map[string]any{"siteName": "Academy"})
	require.NoError(t, err)
	assert.Equal(t, "Academy", settings["siteName"])

	overview, err := s.api.Overview(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, overview["courses"])

	require.NoError(t, s.api.Delete(ctx, apiclient.ResourceCertifications, id))
	_, err = s.api.Get(ctx, apiclient.ResourceCertifications, id)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = s.api.Create(ctx, apiclient.ResourceCourses, map[string]any{})
	assert.True(t, apperrors.IsValidation(err))
}

func TestServer_AdminRequiresSuperuser(t *testing.T) {
	srv, err := devbackend.New(devbackend.Options{Config: devConfig()})
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/admin/courses")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	form := url.Values{"username": {"teacher@x.com"}, "password": {"pw"}}
	resp, err = http.Post(ts.URL+"/api/auth/login", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	token := gjson.GetBytes(body, "access_token").String()
	require.NotEmpty(t, token)
	assert.False(t, gjson.GetBytes(body, "is_superuser").Bool())

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/admin/courses", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServer_LoginValidation(t *testing.T) {
	srv, err := devbackend.New(devbackend.Options{Config: devConfig()})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("username=admin%40x.com"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "password is required", apperrors.ResponseDetail(rec.Body.Bytes()))
}

func TestServer_UnknownResource(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	_, err := s.sessions.Login(ctx, "admin@x.com", "pw")
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.server.URL+"/api/admin/grades", nil)
	require.NoError(t, err)
	s.sessions.AttachAuthority(req)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
