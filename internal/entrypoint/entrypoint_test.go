package entrypoint

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/videoanalyzer/internal/auth"
	"github.com/mrlokans/videoanalyzer/internal/config"
)

func TestServe_ShutsDownOnCancel(t *testing.T) {
	cfg := &config.Config{
		HTTP:   config.HTTP{Host: "127.0.0.1", Port: 0},
		Global: config.Global{ShutdownTimeoutInSeconds: 2},
	}

	ctx, cancel := context.WithCancel(context.Background())
	shutdownCalled := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, http.NotFoundHandler(), cfg, zerolog.Nop(), func(context.Context) {
			close(shutdownCalled)
		})
	}()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	select {
	case <-shutdownCalled:
	default:
		t.Fatal("shutdown callback was not called")
	}
}

func TestServe_ListenError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := &config.Config{
		HTTP:   config.HTTP{Host: "127.0.0.1", Port: int32(busy.Addr().(*net.TCPAddr).Port)},
		Global: config.Global{ShutdownTimeoutInSeconds: 1},
	}

	err = Serve(context.Background(), http.NotFoundHandler(), cfg, zerolog.Nop(), nil)
	assert.ErrorContains(t, err, "listen")
}

func TestLogModeBanner(t *testing.T) {
	t.Run("development warns that auth is disabled", func(t *testing.T) {
		var buf bytes.Buffer
		logger := zerolog.New(&buf)

		logModeBanner(logger, &config.Config{}, auth.ModeInfo{Mode: auth.ModeDevelopment})

		assert.Contains(t, buf.String(), "DEVELOPMENT MODE")
		assert.Contains(t, buf.String(), `"level":"warn"`)
	})

	t.Run("production without key warns", func(t *testing.T) {
		var buf bytes.Buffer
		logModeBanner(zerolog.New(&buf), &config.Config{}, auth.ModeInfo{Mode: auth.ModeProduction})

		assert.Contains(t, buf.String(), "API_KEY is not set")
		assert.NotContains(t, buf.String(), "DEVELOPMENT MODE")
	})

	t.Run("production with key is quiet", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := &config.Config{Auth: config.Auth{APIKey: "k"}}
		logModeBanner(zerolog.New(&buf), cfg, auth.ModeInfo{Mode: auth.ModeProduction})

		assert.NotContains(t, buf.String(), `"level":"warn"`)
	})
}
