package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"chatdesk-server/pkg/logger"

	"go.uber.org/zap"
)

// Config holds all configuration settings. It is validated once at process
// start and passed to collaborators by reference; nothing reads it ambiently.
type Config struct {
	Server struct {
		Port int    `json:"port"`
		Host string `json:"host"`
	} `json:"server"`
	Database struct {
		DSN string `json:"dsn"`
	} `json:"database"`
	Webhook struct {
		VerifyToken string `json:"verify_token"`
		AppSecret   string `json:"app_secret"`
	} `json:"webhook"`
	Send struct {
		Command string   `json:"command"`
		Args    []string `json:"args"`
	} `json:"send"`
	Feed struct {
		RedisAddr    string `json:"redis_addr"`
		RedisChannel string `json:"redis_channel"`
	} `json:"feed"`
	History struct {
		MessageLimit int `json:"message_limit"`
	} `json:"history"`
	Logging struct {
		Level string `json:"level"`
		Path  string `json:"path"`
	} `json:"logging"`
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(path string) (*Config, error) {
	// Validate path to prevent directory traversal
	cleanPath := filepath.Clean(path)
	if !filepath.IsAbs(cleanPath) {
		return nil, fmt.Errorf("config path must be absolute")
	}

	// Check if file exists and is a regular file
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("config file error: %w", err)
	}
	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("config path is not a regular file")
	}

	file, err := os.Open(cleanPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logger.Warn("Failed to close config file", zap.Error(closeErr))
		}
	}()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	config := &Config{}
	config.Server.Port = 8080
	config.Server.Host = "localhost"
	config.Database.DSN = "file:chatdesk.db?cache=shared&mode=rwc"
	config.Webhook.VerifyToken = "change-me"
	config.Send.Command = "./scripts/send-message.sh"
	config.Feed.RedisChannel = "chatdesk.feed"
	config.History.MessageLimit = 100
	config.Logging.Level = "info"
	config.Logging.Path = "server.log"
	return config
}

// ApplyEnv overlays environment variables onto the configuration. Secrets in
// particular are expected to arrive through the environment rather than the
// config file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("CHATDESK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("CHATDESK_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("CHATDESK_VERIFY_TOKEN"); v != "" {
		c.Webhook.VerifyToken = v
	}
	if v := os.Getenv("CHATDESK_APP_SECRET"); v != "" {
		c.Webhook.AppSecret = v
	}
	if v := os.Getenv("CHATDESK_SEND_COMMAND"); v != "" {
		c.Send.Command = v
	}
	if v := os.Getenv("CHATDESK_REDIS_ADDR"); v != "" {
		c.Feed.RedisAddr = v
	}
}

// Validate checks that the configuration is usable. It is called once at
// startup so that a bad deployment fails fast instead of at first request.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.DSN == "" {
		return errors.New("database DSN is required")
	}
	if c.Webhook.VerifyToken == "" {
		return errors.New("webhook verify token is required")
	}
	if c.Send.Command == "" {
		return errors.New("send command is required")
	}
	if c.History.MessageLimit <= 0 {
		return errors.New("history message limit must be positive")
	}
	if c.Feed.RedisAddr != "" && c.Feed.RedisChannel == "" {
		return errors.New("redis channel is required when redis is enabled")
	}
	return nil
}
