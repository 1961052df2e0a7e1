package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379",
	})
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost/pdv",
		"REDIS_URL":    "redis://localhost:6379",
		"PORT":         "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "BRL", cfg.CurrencyCode)
	require.Equal(t, 12, cfg.MaxInstallments)
	require.Positive(t, cfg.CatalogCacheTTL)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":     "postgres://localhost/pdv",
		"REDIS_URL":        "redis://localhost:6379",
		"PORT":             "9090",
		"CURRENCY_CODE":    "USD",
		"MAX_INSTALLMENTS": "6",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, "USD", cfg.CurrencyCode)
	require.Equal(t, 6, cfg.MaxInstallments)
}
