package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/elearn-admin/internal/domain/auth"
	"github.com/target/elearn-admin/internal/ports"
	"github.com/target/elearn-admin/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func testMarker() domainauth.IdentityMarker {
	return domainauth.IdentityMarker{
		User:    domainauth.Identity{ID: "1", Email: "admin@x.com", IsSuperuser: true},
		SavedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestMarkerStore_SaveAndLoad(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewMarkerStore(client, MarkerStoreOptions{Key: "test:marker"})
	ctx := context.Background()

	marker := testMarker()
	require.NoError(t, store.Save(ctx, marker))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, marker.User, loaded.User)
	assert.WithinDuration(t, marker.SavedAt, loaded.SavedAt, time.Second)
}

func TestMarkerStore_LoadMissing(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewMarkerStore(client, MarkerStoreOptions{})
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ports.ErrMarkerNotFound)
}

func TestMarkerStore_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewMarkerStore(client, MarkerStoreOptions{Key: "test:marker-delete"})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testMarker()))
	require.NoError(t, store.Delete(ctx))
	require.NoError(t, store.Delete(ctx))

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrMarkerNotFound)
}

func TestMarkerStore_CorruptValue(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewMarkerStore(client, MarkerStoreOptions{Key: "test:marker-corrupt"})
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "test:marker-corrupt", "{not json", 0).Err())

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrMarkerNotFound)

	exists, err := client.Exists(ctx, "test:marker-corrupt").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestMarkerStore_TTL(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewMarkerStore(client, MarkerStoreOptions{Key: "test:marker-ttl", TTL: time.Hour})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testMarker()))

	ttl, err := client.TTL(ctx, "test:marker-ttl").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
}

func TestMarkerStore_RejectsEmptyIdentity(t *testing.T) {
	store := NewMarkerStore(nil, MarkerStoreOptions{})
	err := store.Save(context.Background(), domainauth.IdentityMarker{})
	assert.Error(t, err)
}
