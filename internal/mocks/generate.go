// Package mocks provides generated mock implementations of the session ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	backend := mocks.NewMockAuthBackend(ctrl)
//	backend.EXPECT().Refresh(gomock.Any()).Return(domainauth.RefreshGrant{AccessToken: tok}, nil)
package mocks

// Generate mock for AuthBackend interface from internal/ports package.
// This creates MockAuthBackend with methods for all AuthBackend interface methods:
// Login, Refresh, Logout
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_backend_mock.go github.com/target/elearn-admin/internal/ports AuthBackend

// Generate mock for MarkerStore interface from internal/ports package.
// This creates MockMarkerStore with methods for all MarkerStore interface methods:
// Save, Load, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=marker_store_mock.go github.com/target/elearn-admin/internal/ports MarkerStore
