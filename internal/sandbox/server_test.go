package sandbox

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kapi/internal/auth"
	"kapi/internal/rest"
)

const (
	testAPIKey = "sandbox-key"
	testSecret = "kQH5HW/8p1uGOVjbgWA7FunAmGO8lsSUXNsu3eow76sz84Q18fWxnyRzBHCd3pd5nE9qa99HAZtuZuj6F1huXg=="
)

var fixedNow = time.Date(2021, 3, 21, 14, 23, 14, 0, time.UTC)

func testAccount() Account {
	return Account{
		APIKey:    testAPIKey,
		APISecret: testSecret,
		Orders: map[string]Order{
			"OQCLML-BW3P3-BUCMWZ": {
				Status:   "open",
				OpenTime: 1616665496.7808,
				Descr: OrderDescr{
					Pair:      "XBTUSD",
					Type:      "buy",
					OrderType: "limit",
					Price:     "30010.0",
					Order:     "buy 1.25000000 XBTUSD @ limit 30010.0",
				},
				Volume:  "1.25000000",
				VolExec: "0.37500000",
				Trades:  []string{"TCCCTY-WE2O6-P3NB37"},
			},
			"OB5VMB-B4U2U-DK2WRW": {
				Status:   "open",
				OpenTime: 1616665899.1412,
				Descr: OrderDescr{
					Pair:      "XBTUSD",
					Type:      "sell",
					OrderType: "limit",
					Price:     "45000.0",
					Order:     "sell 0.50000000 XBTUSD @ limit 45000.0",
				},
				Volume:  "0.50000000",
				VolExec: "0.00000000",
			},
		},
	}
}

func newTestServer(t *testing.T, logger zerolog.Logger) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv, err := NewServer(Config{
		Mode:     gin.TestMode,
		Accounts: []Account{testAccount()},
		Now:      func() time.Time { return fixedNow },
	}, logger)
	require.NoError(t, err)
	return srv
}

type envelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func signedRequest(t *testing.T, apiKey, secret, nonce string) *http.Request {
	t.Helper()
	signer, err := auth.NewSigner(apiKey, secret)
	require.NoError(t, err)

	signed := signer.SignRequest(OpenOrdersPath, nonce, auth.OpenOrdersParams)
	req := httptest.NewRequest(http.MethodPost, OpenOrdersPath, strings.NewReader(signed.Body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("API-Key", signer.APIKey())
	req.Header.Set("API-Sign", signed.Signature)
	return req
}

func TestNewServer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("applies defaults", func(t *testing.T) {
		srv, err := NewServer(Config{Mode: gin.TestMode}, zerolog.Nop())

		require.NoError(t, err)
		assert.Equal(t, 30*time.Second, srv.config.ReadTimeout)
		assert.Equal(t, 30*time.Second, srv.config.WriteTimeout)
		assert.Equal(t, 60*time.Second, srv.config.IdleTimeout)
		assert.Contains(t, srv.config.Markets, "XBTUSD")
		assert.NotNil(t, srv.config.Now)
	})

	t.Run("rejects invalid port", func(t *testing.T) {
		_, err := NewServer(Config{Port: 70000}, zerolog.Nop())
		assert.Error(t, err)
	})

	t.Run("rejects account with invalid secret", func(t *testing.T) {
		_, err := NewServer(Config{
			Mode:     gin.TestMode,
			Accounts: []Account{{APIKey: "k", APISecret: "not base64!"}},
		}, zerolog.Nop())

		assert.ErrorIs(t, err, auth.ErrInvalidSecretEncoding)
	})

	t.Run("rejects duplicate accounts", func(t *testing.T) {
		_, err := NewServer(Config{
			Mode:     gin.TestMode,
			Accounts: []Account{testAccount(), testAccount()},
		}, zerolog.Nop())

		assert.Error(t, err)
	})

	t.Run("rejects account without key", func(t *testing.T) {
		_, err := NewServer(Config{
			Mode:     gin.TestMode,
			Accounts: []Account{{APISecret: testSecret}},
		}, zerolog.Nop())

		assert.Error(t, err)
	})
}

func TestServerTime(t *testing.T) {
	srv := newTestServer(t, zerolog.Nop())

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, TimePath, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Empty(t, env.Error)
	assert.NotNil(t, env.Error)

	var result struct {
		Unixtime int64  `json:"unixtime"`
		RFC1123  string `json:"rfc1123"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &result))
	assert.Equal(t, fixedNow.Unix(), result.Unixtime)
	assert.Equal(t, "Sun, 21 Mar 21 14:23:14 +0000", result.RFC1123)
}

func TestTicker(t *testing.T) {
	srv := newTestServer(t, zerolog.Nop())

	t.Run("known pair resolves to its symbol", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, TickerPath+"?pair=XBTUSD", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		env := decode(t, w)
		assert.Empty(t, env.Error)

		var result map[string]map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(env.Result, &result))
		require.Contains(t, result, "XXBTZUSD")
		assert.Len(t, result, 1)
		for _, field := range []string{"a", "b", "c", "v", "p", "t", "l", "h", "o"} {
			assert.Contains(t, result["XXBTZUSD"], field)
		}
	})

	t.Run("unknown pair", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, TickerPath+"?pair=FOOBAR", nil))

		env := decode(t, w)
		assert.Equal(t, []string{rest.CodeUnknownPair}, env.Error)
		assert.Empty(t, env.Result)
	})

	t.Run("missing pair", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, TickerPath, nil))

		env := decode(t, w)
		assert.Equal(t, []string{CodeInvalidArgs}, env.Error)
	})
}

func TestOpenOrders(t *testing.T) {
	t.Run("returns orders with trades", func(t *testing.T) {
		srv := newTestServer(t, zerolog.Nop())

		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, signedRequest(t, testAPIKey, testSecret, "1616492376594"))

		assert.Equal(t, http.StatusOK, w.Code)
		env := decode(t, w)
		assert.Empty(t, env.Error)

		var result struct {
			Open map[string]Order `json:"open"`
		}
		require.NoError(t, json.Unmarshal(env.Result, &result))
		assert.Len(t, result.Open, 2)
		assert.Equal(t, []string{"TCCCTY-WE2O6-P3NB37"}, result.Open["OQCLML-BW3P3-BUCMWZ"].Trades)
	})

	t.Run("checks run in order", func(t *testing.T) {
		tests := []struct {
			name    string
			request func(t *testing.T) *http.Request
			code    string
		}{
			{
				name: "unknown key",
				request: func(t *testing.T) *http.Request {
					return signedRequest(t, "other-key", testSecret, "1")
				},
				code: rest.CodeInvalidKey,
			},
			{
				name: "missing key",
				request: func(t *testing.T) *http.Request {
					req := signedRequest(t, testAPIKey, testSecret, "1")
					req.Header.Del("API-Key")
					return req
				},
				code: rest.CodeInvalidKey,
			},
			{
				name: "wrong secret",
				request: func(t *testing.T) *http.Request {
					return signedRequest(t, testAPIKey, "d3Jvbmctc2VjcmV0", "1")
				},
				code: rest.CodeInvalidSignature,
			},
			{
				name: "tampered body",
				request: func(t *testing.T) *http.Request {
					req := signedRequest(t, testAPIKey, testSecret, "1")
					sig := req.Header.Get("API-Sign")
					tampered := httptest.NewRequest(http.MethodPost, OpenOrdersPath, strings.NewReader("nonce=1&trades=false"))
					tampered.Header.Set("API-Key", testAPIKey)
					tampered.Header.Set("API-Sign", sig)
					return tampered
				},
				code: rest.CodeInvalidSignature,
			},
			{
				name: "non numeric nonce",
				request: func(t *testing.T) *http.Request {
					return signedRequest(t, testAPIKey, testSecret, "abc")
				},
				code: rest.CodeInvalidNonce,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				srv := newTestServer(t, zerolog.Nop())

				w := httptest.NewRecorder()
				srv.Handler().ServeHTTP(w, tt.request(t))

				assert.Equal(t, http.StatusOK, w.Code)
				assert.Equal(t, []string{tt.code}, decode(t, w).Error)
			})
		}
	})

	t.Run("rejects replayed and older nonces", func(t *testing.T) {
		srv := newTestServer(t, zerolog.Nop())

		for i, tc := range []struct {
			nonce string
			ok    bool
		}{
			{"1000", true},
			{"1000", false},
			{"999", false},
			{"1001", true},
		} {
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, signedRequest(t, testAPIKey, testSecret, tc.nonce))

			env := decode(t, w)
			if tc.ok {
				assert.Empty(t, env.Error, "request %d", i)
			} else {
				assert.Equal(t, []string{rest.CodeInvalidNonce}, env.Error, "request %d", i)
			}
		}
	})

	t.Run("failed signature does not consume the nonce", func(t *testing.T) {
		srv := newTestServer(t, zerolog.Nop())

		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, signedRequest(t, testAPIKey, "d3Jvbmctc2VjcmV0", "5000"))
		assert.Equal(t, []string{rest.CodeInvalidSignature}, decode(t, w).Error)

		w = httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, signedRequest(t, testAPIKey, testSecret, "5000"))
		assert.Empty(t, decode(t, w).Error)
	})
}

func TestUnknownMethod(t *testing.T) {
	srv := newTestServer(t, zerolog.Nop())

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/0/public/Assets"},
		{http.MethodPost, "/0/private/Balance"},
		{http.MethodPost, TimePath},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, []string{rest.CodeUnknownMethod}, decode(t, w).Error)
		})
	}
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	srv := newTestServer(t, zerolog.New(&buf))

	req := httptest.NewRequest(http.MethodGet, TickerPath+"?pair=XBTUSD", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "req-123", event["request_id"])
	assert.Equal(t, "GET", event["method"])
	assert.Equal(t, TickerPath+"?pair=XBTUSD", event["path"])
	assert.Equal(t, float64(200), event["status"])
}
