//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are installed globally via `go install` and are not tracked in go.mod
// since they are development tools, not runtime dependencies.
package tools

// Development tools (install via `go install`):
//
// mockgen - Regenerates internal/mocks from internal/ports
//   Install: go install go.uber.org/mock/mockgen@v0.6.0
//   Version: v0.6.0 (matches go.uber.org/mock in go.mod)
//   Usage: go generate ./internal/mocks
//
// Air - Live reload for the dev backend
//   Install: go install github.com/air-verse/air@v1.63.0
//   Usage: air --build.cmd "go build -o ./tmp/devbackend ./cmd/elearn-devbackend" --build.bin ./tmp/devbackend
//
// golangci-lint - Linting (nolint directives in this repo target its linters)
//   Install: go install github.com/golangci/golangci-lint/v2/cmd/golangci-lint@latest
