package config

import (
	"errors"
	"fmt"
)

// ErrConfig is matched by every ConfigError
var ErrConfig = errors.New("config error")

// ConfigError reports a missing or unreadable configuration value
type ConfigError struct {
	Key    string
	Reason string
	Err    error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	msg := e.Reason
	if e.Key != "" {
		msg = fmt.Sprintf("%s: %s", e.Key, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("%v: %s", ErrConfig, msg)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrConfig
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

func missing(key string) error {
	return &ConfigError{Key: key, Reason: "is required"}
}
