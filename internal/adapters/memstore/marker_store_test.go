package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/elearn-admin/internal/domain/auth"
	"github.com/target/elearn-admin/internal/ports"
)

func TestMarkerStore_RoundTrip(t *testing.T) {
	store := NewMarkerStore()
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ports.ErrMarkerNotFound)

	marker := domainauth.IdentityMarker{
		User:    domainauth.Identity{ID: "1", Email: "admin@x.com", IsSuperuser: true},
		SavedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, marker))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, marker, got)

	require.NoError(t, store.Delete(ctx))
	require.NoError(t, store.Delete(ctx))
	_, err = store.Load(ctx)
	require.ErrorIs(t, err, ports.ErrMarkerNotFound)
}

func TestMarkerStore_CanceledContext(t *testing.T) {
	store := NewMarkerStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, store.Save(ctx, domainauth.IdentityMarker{}), context.Canceled)
	_, err := store.Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, store.Delete(ctx), context.Canceled)
}
