package config

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"pulse-chat/internal/logger"
)

// AppConfig holds all application configuration
type AppConfig struct {
	Gateway  GatewayConfig
	Remote   RemoteConfig
	Snapshot SnapshotConfig
	Auth     AuthConfig
}

// GatewayConfig holds generation provider gateway configuration
type GatewayConfig struct {
	BaseURL     string
	Temperature float64
}

// RemoteConfig holds conversation service configuration
type RemoteConfig struct {
	BaseURL string
	Enabled bool
}

// SnapshotConfig holds local snapshot store configuration
type SnapshotConfig struct {
	Path string
}

// AuthConfig holds the stored bearer credential, if any
type AuthConfig struct {
	Token string
}

// LoadConfig loads application configuration from environment
func LoadConfig() *AppConfig {
	config := &AppConfig{}

	config.Gateway = GatewayConfig{
		BaseURL:     getEnvOrDefault("PULSE_GATEWAY_URL", "http://localhost:8000"),
		Temperature: getEnvAsFloat("PULSE_TEMPERATURE", 0.7),
	}

	config.Remote = RemoteConfig{
		BaseURL: getEnvOrDefault("PULSE_API_URL", "http://localhost:3000/api"),
		Enabled: getEnvAsBool("PULSE_REMOTE_SYNC", false),
	}

	config.Snapshot = SnapshotConfig{
		Path: os.Getenv("PULSE_SNAPSHOT_PATH"),
	}

	token := os.Getenv("PULSE_AUTH_TOKEN")
	if token == "" && config.Remote.Enabled {
		logger.Log.Warn("PULSE_REMOTE_SYNC is on but PULSE_AUTH_TOKEN is not set; remote sync will be skipped")
	}
	config.Auth = AuthConfig{Token: token}

	return config
}

// Helper functions for environment variable parsing

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid float value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid boolean value, using default")
		return defaultValue
	}
	return value
}
