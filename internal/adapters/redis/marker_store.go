package redis

// Package redis provides Redis-based adapters for the admin console.

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/elearn-admin/internal/domain/auth"
	"github.com/target/elearn-admin/internal/ports"
)

// DefaultMarkerKey is the well-known key used when none is configured.
const DefaultMarkerKey = "elearn-admin:user"

var _ ports.MarkerStore = (*MarkerStore)(nil)

// MarkerStore persists the identity marker under a single well-known key.
// A zero TTL keeps the marker until it is deleted.
type MarkerStore struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// MarkerStoreOptions configures a MarkerStore.
type MarkerStoreOptions struct {
	Key string
	TTL time.Duration
}

// NewMarkerStore creates a Redis-backed marker store.
func NewMarkerStore(client redis.UniversalClient, opts MarkerStoreOptions) *MarkerStore {
	key := opts.Key
	if key == "" {
		key = DefaultMarkerKey
	}
	return &MarkerStore{client: client, key: key, ttl: opts.TTL}
}

func (s *MarkerStore) Save(ctx context.Context, marker domainauth.IdentityMarker) error {
	if marker.User.ID == "" && marker.User.Email == "" {
		return errors.New("marker identity cannot be empty")
	}

	data, err := json.Marshal(marker)
	if err != nil {
		return fmt.Errorf("marshal marker: %w", err)
	}

	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *MarkerStore) Load(ctx context.Context) (domainauth.IdentityMarker, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.IdentityMarker{}, ports.ErrMarkerNotFound
		}
		return domainauth.IdentityMarker{}, fmt.Errorf("redis get: %w", err)
	}

	var marker domainauth.IdentityMarker
	if unmarshalErr := json.Unmarshal(data, &marker); unmarshalErr != nil {
		// A corrupt marker only means no silent refresh; drop it.
		if delErr := s.Delete(ctx); delErr != nil {
			return domainauth.IdentityMarker{}, fmt.Errorf("cleanup corrupt marker: %w", delErr)
		}
		return domainauth.IdentityMarker{}, ports.ErrMarkerNotFound
	}

	return marker, nil
}

func (s *MarkerStore) Delete(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
