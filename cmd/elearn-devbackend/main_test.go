package main

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/target/elearn-admin/config"
	"github.com/target/elearn-admin/internal/devbackend"
)

func TestWaitForShutdown_ServerFailure(t *testing.T) {
	srv, err := devbackend.New(devbackend.Options{Config: config.DevBackendConfig{Secret: "s"}})
	require.NoError(t, err)

	errCh := make(chan error, 1)
	errCh <- errors.New("address already in use")

	err = waitForShutdown(context.Background(), srv, errCh, slog.Default())
	require.ErrorContains(t, err, "address already in use")
}

func TestWaitForShutdown_ServerReturnedNil(t *testing.T) {
	srv, err := devbackend.New(devbackend.Options{Config: config.DevBackendConfig{Secret: "s"}})
	require.NoError(t, err)

	errCh := make(chan error, 1)
	errCh <- nil

	err = waitForShutdown(context.Background(), srv, errCh, slog.Default())
	require.ErrorContains(t, err, "stopped unexpectedly")
}
