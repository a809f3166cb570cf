package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "file:chatdesk.db?cache=shared&mode=rwc", cfg.Database.DSN)
	assert.Equal(t, 100, cfg.History.MessageLimit)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "server.log", cfg.Logging.Path)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	configData := `{
		"server": {
			"port": 9090,
			"host": "127.0.0.1"
		},
		"database": {
			"dsn": "file:test.db?cache=shared&mode=rwc"
		},
		"webhook": {
			"verify_token": "test-verify-token",
			"app_secret": "test-app-secret"
		},
		"send": {
			"command": "/usr/local/bin/send",
			"args": ["--channel", "whatsapp"]
		},
		"history": {
			"message_limit": 50
		},
		"logging": {
			"level": "debug",
			"path": "test.log"
		}
	}`

	err := os.WriteFile(configPath, []byte(configData), 0644)
	assert.NoError(t, err)

	// Test loading valid config
	cfg, err := LoadConfig(configPath)
	assert.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "file:test.db?cache=shared&mode=rwc", cfg.Database.DSN)
	assert.Equal(t, "test-verify-token", cfg.Webhook.VerifyToken)
	assert.Equal(t, "test-app-secret", cfg.Webhook.AppSecret)
	assert.Equal(t, "/usr/local/bin/send", cfg.Send.Command)
	assert.Equal(t, []string{"--channel", "whatsapp"}, cfg.Send.Args)
	assert.Equal(t, 50, cfg.History.MessageLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Test loading non-existent file
	cfg, err = LoadConfig("non-existent.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)

	// Test loading invalid JSON
	invalidConfigPath := filepath.Join(tmpDir, "invalid.json")
	err = os.WriteFile(invalidConfigPath, []byte("invalid json"), 0644)
	assert.NoError(t, err)

	cfg, err = LoadConfig(invalidConfigPath)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CHATDESK_PORT", "9999")
	t.Setenv("CHATDESK_DB_DSN", "file:env.db")
	t.Setenv("CHATDESK_VERIFY_TOKEN", "env-token")
	t.Setenv("CHATDESK_APP_SECRET", "env-secret")
	t.Setenv("CHATDESK_SEND_COMMAND", "/bin/env-send")
	t.Setenv("CHATDESK_REDIS_ADDR", "localhost:6379")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "file:env.db", cfg.Database.DSN)
	assert.Equal(t, "env-token", cfg.Webhook.VerifyToken)
	assert.Equal(t, "env-secret", cfg.Webhook.AppSecret)
	assert.Equal(t, "/bin/env-send", cfg.Send.Command)
	assert.Equal(t, "localhost:6379", cfg.Feed.RedisAddr)
}

func TestApplyEnvInvalidPort(t *testing.T) {
	t.Setenv("CHATDESK_PORT", "not-a-number")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "zero port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "missing DSN",
			mutate:  func(c *Config) { c.Database.DSN = "" },
			wantErr: true,
		},
		{
			name:    "missing verify token",
			mutate:  func(c *Config) { c.Webhook.VerifyToken = "" },
			wantErr: true,
		},
		{
			name:    "missing send command",
			mutate:  func(c *Config) { c.Send.Command = "" },
			wantErr: true,
		},
		{
			name:    "non-positive history limit",
			mutate:  func(c *Config) { c.History.MessageLimit = 0 },
			wantErr: true,
		},
		{
			name: "redis without channel",
			mutate: func(c *Config) {
				c.Feed.RedisAddr = "localhost:6379"
				c.Feed.RedisChannel = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
