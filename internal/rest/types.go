package rest

import (
	"encoding/json"
)

// envelope is the outer wrapper of every exchange response
type envelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

// hasResult treats an absent result and a JSON null the same way
func (e *envelope) hasResult() bool {
	return len(e.Result) > 0 && string(e.Result) != "null"
}

// ServerTime is the result of the time endpoint
type ServerTime struct {
	Unixtime int64  `json:"unixtime"`
	RFC1123  string `json:"rfc1123"`
}

// TickerResponse is the loosely typed ticker envelope. Result is left raw
// since its shape is only trusted after the error list has been checked.
type TickerResponse struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

// HasResult treats an absent result and a JSON null the same way
func (t *TickerResponse) HasResult() bool {
	return len(t.Result) > 0 && string(t.Result) != "null"
}

// OpenOrdersRequest describes one signed open orders call
type OpenOrdersRequest struct {
	Path  string // URI path, e.g. /0/private/OpenOrders
	Nonce string // optional override; empty generates a fresh nonce
}

// OpenOrders is the result of the open orders endpoint. Orders are kept
// opaque, keyed by transaction id.
type OpenOrders struct {
	Open  map[string]json.RawMessage `json:"open"`
	Nonce string                     `json:"-"`
}

// Count returns the number of open orders
func (o *OpenOrders) Count() int {
	return len(o.Open)
}
