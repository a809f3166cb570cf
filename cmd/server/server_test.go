package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatdesk-server/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Database.DSN = "file:server-test.db?mode=memory&cache=shared"
	return cfg
}

func TestSetupServer(t *testing.T) {
	// Test with valid configuration
	cfg := testConfig()

	srv, cleanup, err := SetupServer(cfg)
	require.NoError(t, err)
	require.NotNil(t, srv)
	assert.Equal(t, ":8080", srv.Addr)
	cleanup()

	// Test with empty configuration
	srv, _, err = SetupServer(nil)
	assert.Error(t, err)
	assert.Nil(t, srv)

	// Test with invalid port
	cfg = testConfig()
	cfg.Server.Port = -1
	srv, _, err = SetupServer(cfg)
	assert.Error(t, err)
	assert.Nil(t, srv)

	// Test with missing send command
	cfg = testConfig()
	cfg.Send.Command = ""
	srv, _, err = SetupServer(cfg)
	assert.Error(t, err)
	assert.Nil(t, srv)
}

func TestHandleHealthCheck(t *testing.T) {
	// Setup test
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", handleHealthCheck)

	// Create test request
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	// Serve the request
	router.ServeHTTP(w, req)

	// Verify response
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "ok", response["status"])
	assert.Equal(t, "chatdesk-server", response["service"])
	assert.NotEmpty(t, response["time"])
}

func TestServerRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.Database.DSN = "file:routes-test.db?mode=memory&cache=shared"

	srv, cleanup, err := SetupServer(cfg)
	require.NoError(t, err)
	defer cleanup()

	// The dashboard queries answer without any data
	req := httptest.NewRequest("GET", "/api/conversations", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/api/messages?phone=%2B15551234", nil)
	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// The webhook handshake rejects an unknown token
	req = httptest.NewRequest("GET", "/webhook?hub.mode=subscribe&hub.verify_token=wrong", nil)
	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("CHATDESK_CONFIG", "")
	t.Setenv("CHATDESK_PORT", "9191")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
}
