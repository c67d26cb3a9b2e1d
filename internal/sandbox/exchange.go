package sandbox

import (
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"kapi/internal/auth"
	"kapi/internal/rest"
)

type accountState struct {
	signer    *auth.Signer
	lastNonce uint64
	orders    map[string]Order
}

// exchange holds the per-key state private endpoints check against
type exchange struct {
	mu       sync.Mutex
	accounts map[string]*accountState
	markets  map[string]Market
}

func newExchange(accounts []Account, markets map[string]Market) (*exchange, error) {
	ex := &exchange{
		accounts: make(map[string]*accountState, len(accounts)),
		markets:  markets,
	}

	for _, acc := range accounts {
		if acc.APIKey == "" {
			return nil, fmt.Errorf("account API key is required")
		}
		if _, exists := ex.accounts[acc.APIKey]; exists {
			return nil, fmt.Errorf("duplicate account %q", acc.APIKey)
		}

		signer, err := auth.NewSigner(acc.APIKey, acc.APISecret)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", acc.APIKey, err)
		}

		orders := make(map[string]Order, len(acc.Orders))
		for txid, order := range acc.Orders {
			orders[txid] = order
		}
		ex.accounts[acc.APIKey] = &accountState{signer: signer, orders: orders}
	}

	return ex, nil
}

// ticker resolves a requested pair
func (e *exchange) ticker(pair string) (Market, bool) {
	m, ok := e.markets[pair]
	return m, ok
}

// authenticate runs the private endpoint checks in exchange order: key,
// signature, then nonce. The nonce is only consumed by a request that passes
// every check.
func (e *exchange) authenticate(apiKey, signature, uriPath, body string) (*accountState, url.Values, string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	acc, ok := e.accounts[apiKey]
	if !ok {
		return nil, nil, rest.CodeInvalidKey
	}

	form, err := url.ParseQuery(body)
	if err != nil {
		return nil, nil, CodeInvalidArgs
	}

	nonce := form.Get("nonce")
	if !acc.signer.ValidateSignature(uriPath, nonce, body, signature) {
		return nil, nil, rest.CodeInvalidSignature
	}

	n, err := strconv.ParseUint(nonce, 10, 64)
	if err != nil || n <= acc.lastNonce {
		return nil, nil, rest.CodeInvalidNonce
	}
	acc.lastNonce = n

	return acc, form, ""
}

// openOrders returns a copy of the account's orders. Trade ids are only
// included when requested.
func (e *exchange) openOrders(acc *accountState, withTrades bool) map[string]Order {
	e.mu.Lock()
	defer e.mu.Unlock()

	open := make(map[string]Order, len(acc.orders))
	for txid, order := range acc.orders {
		if !withTrades {
			order.Trades = nil
		}
		open[txid] = order
	}
	return open
}
