package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Props holds raw key=value pairs read from a props file
type Props map[string]string

// LoadProps reads a props file from disk
func LoadProps(path string) (Props, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{Key: path, Reason: "cannot read config file", Err: err}
	}
	defer f.Close()

	return ParseProps(f)
}

// ParseProps parses newline-delimited key=value pairs. Blank lines and lines
// starting with '#' or '-' are comments. The first '=' splits key from value.
func ParseProps(r io.Reader) (Props, error) {
	props := make(Props)
	scanner := bufio.NewScanner(r)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, &ConfigError{Key: fmt.Sprintf("line %d", lineNo), Reason: "expected key=value"}
		}
		props[key] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ConfigError{Reason: "cannot read config", Err: err}
	}

	return props, nil
}

// Get returns the value for key, or defaultValue when absent or empty
func (p Props) Get(key, defaultValue string) string {
	if value := p[key]; value != "" {
		return value
	}
	return defaultValue
}
