package rest

import (
	"fmt"
	"strings"
)

// Error codes returned by the exchange in the envelope's error list
const (
	CodeInvalidNonce     = "EAPI:Invalid nonce"
	CodeInvalidKey       = "EAPI:Invalid key"
	CodeInvalidSignature = "EAPI:Invalid signature"
	CodeUnknownPair      = "EQuery:Unknown asset pair"
	CodeUnknownMethod    = "EGeneral:Unknown method"
)

// TransportError is a failure to complete the HTTP exchange: connection,
// timeout, body read, or a non-2xx status without a JSON envelope.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: transport error: HTTP %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError means the server answered but the body is not a valid envelope
type DecodeError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: failed to decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// APIError carries the exchange's error list verbatim
type APIError struct {
	Codes []string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("exchange API error: %s", strings.Join(e.Codes, "; "))
}

// Has reports whether the exchange returned the given code
func (e *APIError) Has(code string) bool {
	for _, c := range e.Codes {
		if c == code {
			return true
		}
	}
	return false
}

// IsNonceError checks if the request was rejected for its nonce
func (e *APIError) IsNonceError() bool {
	return e.Has(CodeInvalidNonce)
}

// IsAuthError checks if this is an authentication error
func (e *APIError) IsAuthError() bool {
	return e.Has(CodeInvalidKey) || e.Has(CodeInvalidSignature)
}

// IsUnknownPair checks if the queried asset pair does not exist
func (e *APIError) IsUnknownPair() bool {
	return e.Has(CodeUnknownPair)
}

// IsUnknownMethod checks if the endpoint does not exist
func (e *APIError) IsUnknownMethod() bool {
	return e.Has(CodeUnknownMethod)
}

// ErrorWithContext wraps errors with operation context for better debugging
func ErrorWithContext(err error, operation string) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", operation, err)
}
