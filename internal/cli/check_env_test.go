package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/videoanalyzer/internal/config"
)

func newTestCommand(cfg *config.Config, environ []string) (*CheckEnvCommand, *bytes.Buffer) {
	var out bytes.Buffer
	return &CheckEnvCommand{
		Out:     &out,
		Config:  cfg,
		Environ: func() []string { return environ },
		LookPath: func(file string) (string, error) {
			if file == "yt-dlp" {
				return "/usr/local/bin/yt-dlp", nil
			}
			return "", errors.New("not found")
		},
	}, &out
}

func TestIsSensitive(t *testing.T) {
	for _, name := range []string{"API_KEY", "YOUTUBE_API_KEY", "REDIS_PASSWORD", "SESSION_SECRET", "github_token"} {
		assert.True(t, IsSensitive(name), name)
	}
	for _, name := range []string{"PORT", "NODE_ENV", "FLY_APP_NAME", "AUTH_MODE"} {
		assert.False(t, IsSensitive(name), name)
	}
}

func TestMaskedEnviron(t *testing.T) {
	lines := MaskedEnviron([]string{
		"PORT=8080",
		"API_KEY=super-secret",
		"DSN=host=db user=x",
		"EMPTY=",
	})

	assert.Equal(t, []string{
		"API_KEY: [HIDDEN]",
		"DSN: host=db user=x",
		"EMPTY: ",
		"PORT: 8080",
	}, lines)
}

func TestCheckEnv_ReportsResolvedMode(t *testing.T) {
	cfg := &config.Config{
		HTTP:       config.HTTP{Host: "0.0.0.0", Port: 8080},
		Global:     config.Global{Environment: "production"},
		Auth:       config.Auth{APIKey: "secret", Mode: "development", SessionDurationDays: 30, Store: "redis"},
		Deployment: config.Deployment{FlyAppName: "yva"},
		YouTube:    config.YouTube{YtDlpPath: "yt-dlp"},
	}
	cmd, out := newTestCommand(cfg, nil)

	require.NoError(t, cmd.Run())

	text := out.String()
	assert.Contains(t, text, "- Mode:               production")
	assert.Contains(t, text, "- AUTH_MODE:          development")
	assert.Contains(t, text, "- Managed deployment: true")
	assert.Contains(t, text, "- Session days:       30")
	assert.Contains(t, text, "- API_KEY set:        true")
	assert.Contains(t, text, "/usr/local/bin/yt-dlp")
	assert.NotContains(t, text, "secret")
	assert.NotContains(t, text, "WARNING")
	assert.NotContains(t, text, "All environment variables")
}

func TestCheckEnv_DevelopmentWarning(t *testing.T) {
	cfg := &config.Config{
		Auth:    config.Auth{Mode: "development"},
		YouTube: config.YouTube{YtDlpPath: "/opt/yt-dlp"},
	}
	cmd, out := newTestCommand(cfg, nil)

	require.NoError(t, cmd.Run())
	assert.Contains(t, out.String(), "WARNING: development mode disables authentication")
	assert.Contains(t, out.String(), "/opt/yt-dlp (not found)")
}

func TestCheckEnv_All(t *testing.T) {
	cmd, out := newTestCommand(&config.Config{}, []string{"YOUTUBE_API_KEY=abc123", "NODE_ENV=production"})
	require.NoError(t, cmd.ParseFlags([]string{"-all"}))

	require.NoError(t, cmd.Run())
	assert.Contains(t, out.String(), "- NODE_ENV: production")
	assert.Contains(t, out.String(), "- YOUTUBE_API_KEY: [HIDDEN]")
	assert.NotContains(t, out.String(), "abc123")
}
