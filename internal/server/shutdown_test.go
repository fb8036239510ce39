package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

func TestGracefulServer_RunsHooksInOrder(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	httpServer := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	gs := NewGracefulServer(httpServer, logger, testConfig())

	var order []string
	gs.RegisterShutdownHook("analytics", func(ctx context.Context) error {
		order = append(order, "analytics")
		return nil
	})
	gs.RegisterShutdownHook("tracing", func(ctx context.Context) error {
		order = append(order, "tracing")
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, []string{"analytics", "tracing"}, order)
}

func TestGracefulServer_HookErrorsAreJoined(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gs := NewGracefulServer(&http.Server{}, logger, testConfig())

	boom := errors.New("flush failed")
	called := false
	gs.RegisterShutdownHook("tracing", func(ctx context.Context) error { return boom })
	gs.RegisterShutdownHook("after", func(ctx context.Context) error {
		called = true
		return nil
	})

	err := gs.shutdown(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "tracing")
	assert.True(t, called, "a failing hook must not stop later hooks")
}

func TestGracefulServer_ListenFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gs := NewGracefulServer(&http.Server{Addr: "256.0.0.1:bad"}, logger, testConfig())

	err := gs.Run(context.Background())

	assert.Error(t, err)
}
