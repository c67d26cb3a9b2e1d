package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"kapi/internal/auth"
)

// Client is a REST client for the exchange's public and private endpoints
type Client struct {
	baseURL    string
	httpClient *http.Client
	signer     *auth.Signer
	logger     zerolog.Logger
}

// Option configures the client
type Option func(*Client)

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient makes the client use a caller-owned transport handle
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient creates a new REST client. signer may be nil when only public
// endpoints are used.
func NewClient(baseURL string, signer *auth.Signer, logger zerolog.Logger, opts ...Option) *Client {
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		signer: signer,
		logger: logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// BaseURL returns the base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the HTTP timeout
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// GetServerTime fetches the exchange clock from the time endpoint
func (c *Client) GetServerTime(ctx context.Context, endpoint string) (*ServerTime, error) {
	const op = "GetServerTime"

	body, err := c.doRequest(ctx, op, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(op, body)
	if err != nil {
		return nil, err
	}
	if len(env.Error) > 0 {
		return nil, &APIError{Codes: env.Error}
	}
	if !env.hasResult() {
		return nil, &DecodeError{Op: op, Err: errors.New("envelope has neither error nor result")}
	}

	var serverTime ServerTime
	if err := json.Unmarshal(env.Result, &serverTime); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}

	return &serverTime, nil
}

// GetTicker fetches ticker info for pair. The envelope is returned as is,
// including API-level errors, for the caller to validate.
func (c *Client) GetTicker(ctx context.Context, endpoint, pair string) (*TickerResponse, error) {
	const op = "GetTicker"

	if pair == "" {
		return nil, fmt.Errorf("pair is required")
	}

	params := url.Values{}
	params.Set("pair", pair)

	body, err := c.doRequest(ctx, op, http.MethodGet, endpoint, params, nil)
	if err != nil {
		return nil, err
	}

	var ticker TickerResponse
	if err := json.Unmarshal(body, &ticker); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}

	return &ticker, nil
}

// GetOpenOrders issues one signed POST to the open orders endpoint
func (c *Client) GetOpenOrders(ctx context.Context, req OpenOrdersRequest) (*OpenOrders, error) {
	const op = "GetOpenOrders"

	if c.signer == nil {
		return nil, fmt.Errorf("signer required for GetOpenOrders")
	}
	if req.Path == "" {
		return nil, fmt.Errorf("open orders path is required")
	}

	signed := c.signer.SignRequest(req.Path, req.Nonce, auth.OpenOrdersParams)

	body, err := c.doRequest(ctx, op, http.MethodPost, c.baseURL+signed.URIPath, nil, signed)
	if err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(op, body)
	if err != nil {
		return nil, err
	}
	if len(env.Error) > 0 {
		c.logger.Warn().
			Str("path", signed.URIPath).
			Str("nonce", signed.Nonce).
			Strs("errors", env.Error).
			Msg("Open orders request rejected")
		return nil, &APIError{Codes: env.Error}
	}

	orders := &OpenOrders{Nonce: signed.Nonce}
	if env.hasResult() {
		if err := json.Unmarshal(env.Result, orders); err != nil {
			return nil, &DecodeError{Op: op, Err: err}
		}
	}

	return orders, nil
}

// doRequest executes one HTTP exchange. signed is nil for public calls.
func (c *Client) doRequest(ctx context.Context, op, method, endpoint string, params url.Values, signed *auth.SignedRequest) ([]byte, error) {
	requestURL := endpoint
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	var body io.Reader
	if signed != nil {
		body = strings.NewReader(signed.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if signed != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("API-Key", c.signer.APIKey())
		req.Header.Set("API-Sign", signed.Signature)
	}

	event := c.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("url", requestURL)
	if signed != nil {
		event = event.Str("api_key", maskKey(c.signer.APIKey())).Str("nonce", signed.Nonce)
	}
	event.Msg("Sending request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("request_id", requestID).
			Str("url", requestURL).
			Msg("Request failed")
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("Received response")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}

	// Some gateways answer API errors with a non-2xx status but a valid envelope
	if isErrorEnvelope(respBody) {
		return respBody, nil
	}

	return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(statusBody(respBody))}
}

func decodeEnvelope(op string, body []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	return &env, nil
}

func isErrorEnvelope(body []byte) bool {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return false
	}
	return len(env.Error) > 0
}

func statusBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "empty response"
	}
	if len(s) > 256 {
		s = s[:256] + "..."
	}
	return s
}

// maskKey keeps only a short prefix of the API key for logs
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}
