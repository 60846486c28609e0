package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "")
	t.Setenv("PERMISSION_CACHE_TTL_SECONDS", "")
	t.Setenv("TAX_RATE_PERCENT", "")

	cfg := Load()
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, ":8080", cfg.Address())
	require.Equal(t, 480, cfg.AccessTokenTTLMinutes)
	require.Equal(t, 300, cfg.PermissionCacheTTLSeconds)
	require.True(t, cfg.TaxRatePercent.IsZero())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "60")
	t.Setenv("TAX_RATE_PERCENT", "11")
	t.Setenv("AUTH_SECRET", "  secret-with-space  ")

	cfg := Load()
	require.Equal(t, ":9090", cfg.Address())
	require.Equal(t, 60, cfg.AccessTokenTTLMinutes)
	require.True(t, cfg.TaxRatePercent.Equal(decimal.NewFromInt(11)))
	require.Equal(t, "secret-with-space", cfg.AuthSecret)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "-5")
	t.Setenv("TAX_RATE_PERCENT", "-2")
	t.Setenv("PERMISSION_CACHE_TTL_SECONDS", "zero")

	cfg := Load()
	require.Equal(t, 480, cfg.AccessTokenTTLMinutes)
	require.True(t, cfg.TaxRatePercent.IsZero())
	require.Equal(t, 300, cfg.PermissionCacheTTLSeconds)
}
