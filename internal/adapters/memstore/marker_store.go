// Package memstore keeps the identity marker in process memory.
// A marker held here does not survive a restart, so startup never attempts a silent refresh.
package memstore

import (
	"context"
	"sync"

	domainauth "github.com/target/elearn-admin/internal/domain/auth"
	"github.com/target/elearn-admin/internal/ports"
)

var _ ports.MarkerStore = (*MarkerStore)(nil)

// MarkerStore is a mutex-guarded ports.MarkerStore.
type MarkerStore struct {
	mu     sync.RWMutex
	marker *domainauth.IdentityMarker
}

// NewMarkerStore creates an empty store.
func NewMarkerStore() *MarkerStore {
	return &MarkerStore{}
}

func (s *MarkerStore) Save(ctx context.Context, marker domainauth.IdentityMarker) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marker = &marker
	return nil
}

func (s *MarkerStore) Load(ctx context.Context) (domainauth.IdentityMarker, error) {
	if err := ctx.Err(); err != nil {
		return domainauth.IdentityMarker{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.marker == nil {
		return domainauth.IdentityMarker{}, ports.ErrMarkerNotFound
	}
	return *s.marker, nil
}

func (s *MarkerStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marker = nil
	return nil
}
