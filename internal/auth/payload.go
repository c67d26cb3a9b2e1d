package auth

import (
	"net/url"
	"strings"
)

// Param is a single form field
type Param struct {
	Key   string
	Value string
}

// Params is an ordered list of form fields. Order is preserved on the wire.
type Params []Param

// OpenOrdersParams is the fixed parameter set sent to the open orders endpoint
var OpenOrdersParams = Params{{Key: "trades", Value: "true"}}

// EncodePayload builds the form-encoded body with nonce first, followed by
// params in slice order. The result is both the request body and hash input.
func EncodePayload(nonce string, params Params) string {
	var b strings.Builder
	b.WriteString("nonce=")
	b.WriteString(url.QueryEscape(nonce))
	for _, p := range params {
		b.WriteByte('&')
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}
