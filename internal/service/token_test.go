package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueIfAboveThresholdBoundary(t *testing.T) {
	issuer := NewTokenIssuer()
	threshold := decimal.NewFromInt(1000)

	// Exactly at the threshold: no token. Strictly above: token.
	assert.Nil(t, issuer.IssueIfAboveThreshold(decimal.NewFromInt(1000), threshold))
	assert.Nil(t, issuer.IssueIfAboveThreshold(decimal.NewFromInt(999), threshold))
	assert.NotNil(t, issuer.IssueIfAboveThreshold(decimal.RequireFromString("1000.01"), threshold))
}

func TestIssuedTokenRange(t *testing.T) {
	issuer := NewTokenIssuer()
	threshold := decimal.NewFromInt(1000)
	total := decimal.NewFromInt(1200)

	for i := 0; i < 1000; i++ {
		token := issuer.IssueIfAboveThreshold(total, threshold)
		require.NotNil(t, token)
		assert.GreaterOrEqual(t, *token, 1000)
		assert.LessOrEqual(t, *token, 9999)
	}
}

func TestVerifyToken(t *testing.T) {
	issuer := NewTokenIssuer()

	assert.True(t, issuer.VerifyToken(4321, 4321))
	assert.False(t, issuer.VerifyToken(4321, 1234))
	assert.False(t, issuer.VerifyToken(0, 1000))
}
