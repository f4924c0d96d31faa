package service

import (
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	tokenMin = 1000
	tokenMax = 9999
)

// TokenIssuer generates and verifies the 4-digit delivery-confirmation
// code handed to the client of a high-value order.
type TokenIssuer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewTokenIssuer creates a new token issuer
func NewTokenIssuer() *TokenIssuer {
	return &TokenIssuer{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// IssueIfAboveThreshold issues a token iff threshold < total. Orders
// exactly at the threshold get none. The token is uniform in [1000, 9999].
func (t *TokenIssuer) IssueIfAboveThreshold(total, threshold decimal.Decimal) *int {
	if !total.GreaterThan(threshold) {
		return nil
	}

	t.mu.Lock()
	token := tokenMin + t.rng.Intn(tokenMax-tokenMin+1)
	t.mu.Unlock()

	return &token
}

// VerifyToken compares the token given by the client against the stored
// one. Exact equality, nothing else.
func (t *TokenIssuer) VerifyToken(given, stored int) bool {
	return given == stored
}
