// Package devbackend is a local stand-in for the e-learning platform's auth
// and admin API. It is used by cmd/elearn-devbackend and by end-to-end tests.
package devbackend

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
	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/target/elearn-admin/config"
	"github.com/target/elearn-admin/internal/apiclient"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/auth"
	userContextKey    = "devbackend.user"
)

// Options configures a Server.
type Options struct {
	Config config.DevBackendConfig
	Logger *slog.Logger
	// Clock drives token issuing and verification; time.Now when nil.
	Clock func() time.Time
	// CookieSecure marks the refresh cookie Secure.
	CookieSecure bool
}

// Server serves /api/auth and /api/admin.
type Server struct {
	echo         *echo.Echo
	issuer       *Issuer
	users        *UserStore
	store        *ResourceStore
	logger       *slog.Logger
	cookieSecure bool
	refreshTTL   time.Duration

	mu       sync.Mutex
	sessions map[string]string // refresh token ID -> user ID
}

// New creates a Server with users seeded from the config.
func New(opts Options) (*Server, error) {
	cfg := opts.Config
	cfg.Sanitize()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "devbackend")

	issuer, err := NewIssuer(cfg.Secret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, opts.Clock)
	if err != nil {
		return nil, err
	}
	users, err := NewUserStore(
		Seed{Email: cfg.AdminEmail, Password: cfg.AdminPassword, IsSuperuser: true},
		Seed{Email: cfg.UserEmail, Password: cfg.UserPassword},
	)
	if err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}

	s := &Server{
		issuer:       issuer,
		users:        users,
		store:        NewResourceStore(),
		logger:       logger,
		cookieSecure: opts.CookieSecure,
		refreshTTL:   cfg.RefreshTokenTTL,
		sessions:     map[string]string{},
	}
	s.echo = s.newEcho()
	return s, nil
}

func (s *Server) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = goccySerializer{}
	e.Validator = &formValidator{validate: validator.New()}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.LogAttrs(c.Request().Context(), slog.LevelDebug, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	auth := e.Group("/api/auth")
	auth.POST("/login", s.login)
	auth.POST("/refresh-token", s.refresh)
	auth.POST("/logout", s.logout)

	admin := e.Group("/api/admin", s.requireSuperuser)
	admin.GET("/:resource", s.listOrRoot)
	admin.GET("/:resource/:id", s.get)
	admin.POST("/:resource", s.create)
	admin.PUT("/:resource", s.updateRoot)
	admin.PUT("/:resource/:id", s.update)
	admin.DELETE("/:resource/:id", s.remove)

	return e
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("dev backend listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type loginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

func (s *Server) login(c echo.Context) error {
	var form loginForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "username and password are required")
	}
	if err := c.Validate(&form); err != nil {
		return err
	}

	u, err := s.users.Authenticate(form.Username, form.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Incorrect email or password")
	}

	access, err := s.issuer.IssueAccess(u)
	if err != nil {
		return err
	}
	if err := s.startRefreshSession(c, u); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"access_token": access,
		"token_type":   "bearer",
		"is_superuser": u.IsSuperuser,
	})
}

func (s *Server) refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "No refresh token")
	}
	claims, err := s.issuer.ParseRefresh(cookie.Value)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
	}

	s.mu.Lock()
	userID, ok := s.sessions[claims.ID]
	delete(s.sessions, claims.ID)
	s.mu.Unlock()
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Refresh token revoked")
	}

	u, ok := s.users.ByID(userID)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}

	access, err := s.issuer.IssueAccess(u)
	if err != nil {
		return err
	}
	if err := s.startRefreshSession(c, u); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"accessToken": access})
}

func (s *Server) logout(c echo.Context) error {
	if cookie, err := c.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		if claims, perr := s.issuer.ParseRefresh(cookie.Value); perr == nil {
			s.mu.Lock()
			delete(s.sessions, claims.ID)
			s.mu.Unlock()
		}
	}
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		MaxAge:   -1,
	})
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

// startRefreshSession rotates the refresh cookie.
func (s *Server) startRefreshSession(c echo.Context, u User) error {
	token, jti, err := s.issuer.IssueRefresh(u)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions[jti] = u.ID
	s.mu.Unlock()

	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.refreshTTL / time.Second),
	})
	return nil
}

func (s *Server) requireSuperuser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
		}
		claims, err := s.issuer.ParseAccess(token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
		}
		if !claims.IsSuperuser {
			return echo.NewHTTPError(http.StatusForbidden, "Not enough privileges")
		}
		c.Set(userContextKey, claims)
		return next(c)
	}
}

func resourceParam(c echo.Context) (string, error) {
	res, err := apiclient.ParseResource(c.Param("resource"))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusNotFound, "Not found")
	}
	return string(res), nil
}

func (s *Server) listOrRoot(c echo.Context) error {
	res, err := resourceParam(c)
	if err != nil {
		return err
	}
	switch apiclient.Resource(res) {
	case apiclient.ResourceOverview:
		return c.JSON(http.StatusOK, s.store.Overview())
	case apiclient.ResourceSettings:
		return c.JSON(http.StatusOK, s.store.Settings())
	default:
		return c.JSON(http.StatusOK, s.store.List(res))
	}
}

func (s *Server) get(c echo.Context) error {
	res, err := resourceParam(c)
	if err != nil {
		return err
	}
	rec, err := s.store.Get(res, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) create(c echo.Context) error {
	res, err := resourceParam(c)
	if err != nil {
		return err
	}
	body, err := bindRecord(c)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Request body is empty")
	}
	return c.JSON(http.StatusCreated, s.store.Create(res, body))
}

func (s *Server) update(c echo.Context) error {
	res, err := resourceParam(c)
	if err != nil {
		return err
	}
	body, err := bindRecord(c)
	if err != nil {
		return err
	}
	rec, err := s.store.Update(res, c.Param("id"), body)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) updateRoot(c echo.Context) error {
	res, err := resourceParam(c)
	if err != nil {
		return err
	}
	if apiclient.Resource(res) != apiclient.ResourceSettings {
		return echo.NewHTTPError(http.StatusMethodNotAllowed, "Method not allowed")
	}
	body, err := bindRecord(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.store.UpdateSettings(body))
}

func (s *Server) remove(c echo.Context) error {
	res, err := resourceParam(c)
	if err != nil {
		return err
	}
	if err := s.store.Delete(res, c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// bindRecord decodes a JSON object body; path params are never merged in.
func bindRecord(c echo.Context) (Record, error) {
	var body Record
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
		return nil, err
	}
	return body, nil
}

// handleError renders errors as {"detail": "..."}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if code >= http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request().Context(), "request failed", "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]string{"detail": msg})
}

type formValidator struct {
	validate *validator.Validate
}

func (v *formValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return echo.NewHTTPError(http.StatusUnprocessableEntity,
				fmt.Sprintf("%s is required", strings.ToLower(verrs[0].Field())))
		}
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}

// goccySerializer implements echo.JSONSerializer with goccy/go-json.
type goccySerializer struct{}

func (goccySerializer) Serialize(c echo.Context, i any, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (goccySerializer) Deserialize(c echo.Context, i any) error {
	if err := json.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed JSON body").SetInternal(err)
	}
	return nil
}
