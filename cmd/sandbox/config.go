package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds sandbox configuration
type Config struct {
	Port            int
	APIKey          string
	APISecret       string // Base64
	SecretGenerated bool
	LogLevel        string
	LogFormat       string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		Port:         8080,
		APIKey:       "sandbox-key",
		LogLevel:     "info",
		LogFormat:    "console",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if portStr := os.Getenv("SANDBOX_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid SANDBOX_PORT value: %v", err)
		}
		config.Port = port
	}

	if apiKey := os.Getenv("SANDBOX_API_KEY"); apiKey != "" {
		config.APIKey = apiKey
	}

	config.APISecret = os.Getenv("SANDBOX_API_SEC")
	if config.APISecret == "" {
		secret, err := generateSecret()
		if err != nil {
			return nil, err
		}
		config.APISecret = secret
		config.SecretGenerated = true
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = strings.ToLower(logLevel)
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		config.LogFormat = strings.ToLower(logFormat)
	}

	timeouts := []struct {
		env string
		dst *time.Duration
	}{
		{"READ_TIMEOUT", &config.ReadTimeout},
		{"WRITE_TIMEOUT", &config.WriteTimeout},
		{"IDLE_TIMEOUT", &config.IdleTimeout},
	}
	for _, t := range timeouts {
		value := os.Getenv(t.env)
		if value == "" {
			continue
		}
		seconds, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value: %v", t.env, err)
		}
		*t.dst = time.Duration(seconds) * time.Second
	}

	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", config.Port)
	}

	if _, err := base64.StdEncoding.DecodeString(config.APISecret); err != nil {
		return fmt.Errorf("SANDBOX_API_SEC is not valid base64: %v", err)
	}

	validLogLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return fmt.Errorf("invalid log level: %s", config.LogLevel)
	}

	if config.LogFormat != "console" && config.LogFormat != "json" {
		return fmt.Errorf("invalid log format: %s", config.LogFormat)
	}

	return nil
}

// generateSecret returns a random 64 byte secret in Base64
func generateSecret() (string, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
