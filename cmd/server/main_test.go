package main

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lattivo/habits-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenStore_Memory(t *testing.T) {
	s, err := openStore(&config.Config{StoreBackend: config.BackendMemory}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestOpenStore_SQLiteMigrates(t *testing.T) {
	cfg := &config.Config{StoreBackend: config.BackendSQL, DatabaseURL: ":memory:", AutoMigrate: true}
	s, err := openStore(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestSetupApp(t *testing.T) {
	cfg := &config.Config{AllowedOrigins: "*", StoreBackend: config.BackendMemory}
	s, err := openStore(cfg, zap.NewNop())
	require.NoError(t, err)
	app := setupApp(cfg, zap.NewNop(), s)

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "http_requests_total"))

	resp, err = app.Test(httptest.NewRequest("GET", "/nowhere", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}
