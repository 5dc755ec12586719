package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetenv(t, "STORE_DRIVER", "AUTH_PROVIDER", "SEND_MESSAGE_RATE", "SEND_MESSAGE_BURST", "DASHBOARD_RECENT_LIMIT", "SERVER_PORT")
	t.Setenv("ALLOWED_ORIGINS", " ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreFirestore, cfg.StoreDriver)
	assert.Equal(t, AuthJWT, cfg.AuthProvider)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, 1.0, cfg.SendMessageRate)
	assert.Equal(t, 10, cfg.SendMessageBurst)
	assert.Equal(t, 5, cfg.DashboardRecentLimit)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", StoreMemory)
	t.Setenv("AUTH_PROVIDER", AuthFirebase)
	t.Setenv("ALLOWED_ORIGINS", "https://shop.example, https://admin.example ,")
	t.Setenv("SEND_MESSAGE_RATE", "0.5")
	t.Setenv("SEND_MESSAGE_BURST", "not-a-number")
	t.Setenv("DASHBOARD_RECENT_LIMIT", "8")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, AuthFirebase, cfg.AuthProvider)
	assert.Equal(t, []string{"https://shop.example", "https://admin.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 0.5, cfg.SendMessageRate)
	assert.Equal(t, 10, cfg.SendMessageBurst, "unparsable values fall back to the default")
	assert.Equal(t, 8, cfg.DashboardRecentLimit)
	assert.False(t, cfg.IsDevelopment())
}
