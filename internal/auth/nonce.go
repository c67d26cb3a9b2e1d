package auth

import (
	"strconv"
	"sync/atomic"
	"time"
)

// NonceSource hands out strictly increasing nonces derived from the wall clock
type NonceSource struct {
	last atomic.Uint64
	now  func() time.Time
}

// NewNonceSource creates a nonce source backed by time.Now
func NewNonceSource() *NonceSource {
	return &NonceSource{now: time.Now}
}

// Next returns the current Unix time in nanoseconds, or last+1 when the clock
// has not moved past the previously issued value.
func (n *NonceSource) Next() uint64 {
	for {
		last := n.last.Load()
		next := uint64(n.now().UnixNano())
		if next <= last {
			next = last + 1
		}
		if n.last.CompareAndSwap(last, next) {
			return next
		}
	}
}

// Resolve returns override verbatim when set, otherwise a fresh nonce
func (n *NonceSource) Resolve(override string) string {
	if override != "" {
		return override
	}
	return strconv.FormatUint(n.Next(), 10)
}
