// Package filestore persists the identity marker as a JSON file on local disk.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
	domainauth "github.com/target/elearn-admin/internal/domain/auth"
	"github.com/target/elearn-admin/internal/ports"
)

var _ ports.MarkerStore = (*MarkerStore)(nil)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

// MarkerStore writes the marker to a single file. Writes go through a
// temporary file in the same directory and are renamed into place.
type MarkerStore struct {
	mu   sync.Mutex
	path string
}

// NewMarkerStore creates a file-backed marker store at path.
func NewMarkerStore(path string) (*MarkerStore, error) {
	if path == "" {
		return nil, errors.New("marker file path is required")
	}
	return &MarkerStore{path: filepath.Clean(path)}, nil
}

// Path returns the marker file location.
func (s *MarkerStore) Path() string { return s.path }

func (s *MarkerStore) Save(ctx context.Context, marker domainauth.IdentityMarker) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal marker: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create marker dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".marker-*")
	if err != nil {
		return fmt.Errorf("create temp marker: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName) // no-op after a successful rename
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write marker: %w", err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod marker: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close marker: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename marker: %w", err)
	}
	return nil
}

func (s *MarkerStore) Load(ctx context.Context) (domainauth.IdentityMarker, error) {
	if err := ctx.Err(); err != nil {
		return domainauth.IdentityMarker{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domainauth.IdentityMarker{}, ports.ErrMarkerNotFound
		}
		return domainauth.IdentityMarker{}, fmt.Errorf("read marker: %w", err)
	}

	var marker domainauth.IdentityMarker
	if err := json.Unmarshal(data, &marker); err != nil {
		// Unreadable content is treated as absent and removed.
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return domainauth.IdentityMarker{}, fmt.Errorf("remove corrupt marker: %w", rmErr)
		}
		return domainauth.IdentityMarker{}, ports.ErrMarkerNotFound
	}
	return marker, nil
}

func (s *MarkerStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove marker: %w", err)
	}
	return nil
}
