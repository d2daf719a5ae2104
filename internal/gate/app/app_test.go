package app

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gate/domain"
	"github.com/aussiebroadwan/toolgate/internal/gate/service"
	"github.com/aussiebroadwan/toolgate/pkg/gatesdk"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()

	return Config{
		Admin:               domain.AdminConfig{Email: "root@example.com", Password: "s3cret"},
		StoreDriver:         DriverSQLite,
		DatabaseFile:        filepath.Join(dir, "toolgate.db"),
		PepperFile:          filepath.Join(dir, "pepper"),
		Env:                 "test",
		LogLevel:            "error",
		LogFormat:           "text",
		Port:                8080,
		ShutdownGracePeriod: time.Second,
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "")
		t.Setenv("TOOLGATE_ADMIN_EMAIL", "")
		t.Setenv("PORT", "")

		cfg := LoadConfig()
		require.Equal(t, DriverSQLite, cfg.StoreDriver)
		require.Equal(t, "admin@toolgate.local", cfg.Admin.Email)
		require.Equal(t, 8080, cfg.Port)
		require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
		require.False(t, cfg.Google.Enabled())
		require.NoError(t, cfg.Validate())
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "Postgres")
		t.Setenv("DATABASE_URL", "postgres://localhost/toolgate")
		t.Setenv("PORT", "9090")
		t.Setenv("SHUTDOWN_GRACE_PERIOD", "30")
		t.Setenv("GOOGLE_CLIENT_ID", "client-1")

		cfg := LoadConfig()
		require.Equal(t, DriverPostgres, cfg.StoreDriver)
		require.Equal(t, 9090, cfg.Port)
		require.Equal(t, 30*time.Second, cfg.ShutdownGracePeriod)
		require.True(t, cfg.Google.Enabled())
		require.NoError(t, cfg.Validate())
	})

	t.Run("bad numbers fall back", func(t *testing.T) {
		t.Setenv("PORT", "eighty")
		t.Setenv("SHUTDOWN_GRACE_PERIOD", "soon")

		cfg := LoadConfig()
		require.Equal(t, 8080, cfg.Port)
		require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.StoreDriver = "mysql" }},
		{"postgres without url", func(c *Config) { c.StoreDriver = DriverPostgres }},
		{"blank admin email", func(c *Config) { c.Admin.Email = "   " }},
		{"bad port", func(c *Config) { c.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)
	client := gatesdk.NewClient(srv.URL)
	ctx := context.Background()

	sess, err := client.Login(ctx, "root@example.com", "s3cret")
	require.NoError(t, err)
	require.Equal(t, gatesdk.ViewAuthorized, sess.View)
	require.Equal(t, "admin", sess.User.Role)

	ready, err := client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "disabled", ready.Checks.IdentityKeys)
}

func TestNew_RestoresSession(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	first, err := New(cfg)
	require.NoError(t, err)
	_, err = first.controller.Login(ctx, "root@example.com", "s3cret")
	require.NoError(t, err)
	require.NoError(t, first.db.Close())

	second, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.db.Close() })

	u, ok := second.controller.CurrentUser()
	require.True(t, ok)
	require.Equal(t, "root@example.com", u.Email)
}

func TestNew_StoreUnavailable(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseFile = filepath.Join(t.TempDir(), "missing", "dir", "toolgate.db")

	_, err := New(cfg)
	require.Error(t, err)
	require.True(t, errors.Is(err, service.ErrStorageUnavailable))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreDriver = "mysql"

	_, err := New(cfg)
	require.Error(t, err)
	require.False(t, errors.Is(err, service.ErrStorageUnavailable))
}
