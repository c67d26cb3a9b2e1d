package ticker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"kapi/internal/rest"
)

// ErrUnexpectedShape is matched by every ShapeError
var ErrUnexpectedShape = errors.New("unexpected response shape")

// arrayFields must be JSON arrays in a ticker entry
var arrayFields = []string{"a", "b", "c", "v", "p", "t", "l", "h"}

// stringFields must be JSON strings in a ticker entry
var stringFields = []string{"o"}

// ShapeError describes a ticker response that does not match the expected structure
type ShapeError struct {
	Field  string
	Reason string
}

// Error implements the error interface
func (e *ShapeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", ErrUnexpectedShape, e.Reason)
	}
	return fmt.Sprintf("%v: field %q %s", ErrUnexpectedShape, e.Field, e.Reason)
}

// Is lets errors.Is match ErrUnexpectedShape
func (e *ShapeError) Is(target error) bool {
	return target == ErrUnexpectedShape
}

// Validated is a ticker envelope whose structure has been checked
type Validated struct {
	Symbol string
	Fields map[string]json.RawMessage
}

// Validate checks a ticker envelope before any of its fields are trusted.
// API errors take precedence over shape checks.
func Validate(resp *rest.TickerResponse) (*Validated, error) {
	if resp == nil {
		return nil, &ShapeError{Reason: "response is nil"}
	}
	if len(resp.Error) > 0 {
		return nil, &rest.APIError{Codes: resp.Error}
	}
	if !resp.HasResult() {
		return nil, &ShapeError{Field: "result", Reason: "is missing"}
	}

	var result map[string]json.RawMessage
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, &ShapeError{Field: "result", Reason: "is not an object"}
	}
	if len(result) != 1 {
		return nil, &ShapeError{Field: "result", Reason: fmt.Sprintf("has %d keys, want exactly 1 (%v)", len(result), symbols(result))}
	}

	var symbol string
	var raw json.RawMessage
	for k, v := range result {
		symbol, raw = k, v
	}

	if symbol == "" {
		return nil, &ShapeError{Field: "result", Reason: "has an empty symbol key"}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, &ShapeError{Field: symbol, Reason: "is not an object"}
	}

	for _, name := range arrayFields {
		if err := checkKind(fields, name, '['); err != nil {
			return nil, err
		}
	}
	for _, name := range stringFields {
		if err := checkKind(fields, name, '"'); err != nil {
			return nil, err
		}
	}

	return &Validated{Symbol: symbol, Fields: fields}, nil
}

// checkKind verifies the field exists and its JSON value starts with the given delimiter
func checkKind(fields map[string]json.RawMessage, name string, open byte) error {
	raw, ok := fields[name]
	value := bytes.TrimSpace(raw)
	if !ok || len(value) == 0 || bytes.Equal(value, []byte("null")) {
		return &ShapeError{Field: name, Reason: "is missing"}
	}
	if value[0] != open {
		want := "an array"
		if open == '"' {
			want = "a string"
		}
		return &ShapeError{Field: name, Reason: "is not " + want}
	}
	return nil
}

func symbols(result map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(result))
	for k := range result {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
