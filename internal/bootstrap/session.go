package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/target/elearn-admin/config"
	"github.com/target/elearn-admin/internal/adapters/authapi"
	"github.com/target/elearn-admin/internal/adapters/filestore"
	"github.com/target/elearn-admin/internal/adapters/jwtclaims"
	"github.com/target/elearn-admin/internal/adapters/memstore"
	redisadapter "github.com/target/elearn-admin/internal/adapters/redis"
	"github.com/target/elearn-admin/internal/apiclient"
	"github.com/target/elearn-admin/internal/ports"
	"github.com/target/elearn-admin/internal/service"
)

// SessionConfig contains the dependencies for the console session.
type SessionConfig struct {
	Config config.AppConfig

	// RedisClient is required when the marker backend is redis.
	RedisClient redis.UniversalClient

	// Transport overrides the network transport for both clients (tests).
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// Session bundles the wired session manager and the clients that depend on it.
type Session struct {
	Manager *service.SessionManager
	API     *apiclient.Client
	Markers ports.MarkerStore
}

// BuildSession wires the auth backend client, token decoder, marker store,
// session manager and admin API client.
func BuildSession(cfg SessionConfig) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	markers, err := BuildMarkerStore(cfg.Config.Storage, cfg.RedisClient)
	if err != nil {
		return nil, err
	}

	var hc *http.Client
	if cfg.Transport != nil {
		hc = &http.Client{Transport: cfg.Transport}
	}

	auth := cfg.Config.Auth
	backend, err := authapi.NewClient(authapi.ClientOptions{
		BaseURL:        auth.BaseURL,
		LoginPath:      auth.LoginPath,
		LogoutPath:     auth.LogoutPath,
		RefreshPath:    auth.RefreshPath,
		Timeout:        auth.Timeout,
		UserAgent:      cfg.Config.API.UserAgent,
		TokenField:     auth.TokenField,
		SuperuserField: auth.SuperuserField,
		HTTPClient:     hc,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build auth backend client: %w", err)
	}

	manager := service.NewSessionManager(service.SessionManagerOptions{
		Backend:          backend,
		Decoder:          jwtclaims.NewDecoder(),
		Markers:          markers,
		Logger:           logger,
		RequireSuperuser: auth.RequireSuperuser,
		CallTimeout:      auth.Timeout,
	})

	api, err := apiclient.NewClient(apiclient.ClientOptions{
		BaseURL:   cfg.Config.API.BaseURL,
		Timeout:   cfg.Config.API.Timeout,
		UserAgent: cfg.Config.API.UserAgent,
		Authority: manager,
		Base:      cfg.Transport,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build admin api client: %w", err)
	}

	return &Session{Manager: manager, API: api, Markers: markers}, nil
}

// BuildMarkerStore selects the identity marker store for the configured backend.
//
//nolint:ireturn // the backend is chosen at runtime.
func BuildMarkerStore(cfg config.StorageConfig, client redis.UniversalClient) (ports.MarkerStore, error) {
	switch cfg.Backend {
	case config.MarkerBackendRedis:
		if client == nil {
			return nil, errors.New("redis marker store requires a redis client")
		}
		return redisadapter.NewMarkerStore(client, redisadapter.MarkerStoreOptions{Key: cfg.RedisKey}), nil
	case config.MarkerBackendMemory:
		return memstore.NewMarkerStore(), nil
	case config.MarkerBackendFile, "":
		store, err := filestore.NewMarkerStore(cfg.FilePath)
		if err != nil {
			return nil, fmt.Errorf("build file marker store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported marker backend %q", cfg.Backend)
	}
}
