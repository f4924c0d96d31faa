package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Business.TokenThreshold.Equal(decimal.NewFromInt(1000)))
	assert.False(t, cfg.Business.RestoreStockOnCancel)
	assert.Equal(t, 86400, cfg.Business.IdempotencyTTLSeconds)
}

func TestLoadBusinessOverrides(t *testing.T) {
	t.Setenv("DELIVERY_TOKEN_THRESHOLD", "250.50")
	t.Setenv("RESTORE_STOCK_ON_CANCEL", "true")

	cfg := Load()

	assert.True(t, cfg.Business.TokenThreshold.Equal(decimal.RequireFromString("250.50")))
	assert.True(t, cfg.Business.RestoreStockOnCancel)
}

func TestLoadBadThresholdFallsBack(t *testing.T) {
	t.Setenv("DELIVERY_TOKEN_THRESHOLD", "not-a-number")

	cfg := Load()

	assert.True(t, cfg.Business.TokenThreshold.Equal(decimal.NewFromInt(1000)))
}
