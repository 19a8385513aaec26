package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("TIMEZONE", "")
	t.Setenv("FUEL_CATEGORY_ID", "")
	t.Setenv("FIRST_SUPERUSER_EMAIL", "")
	t.Setenv("FIRST_SUPERUSER_PASSWORD", "")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, BackendMemory, cfg.DataBackend)
	assert.Equal(t, int64(1), cfg.FuelCategoryID)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.TrustedProxies)
	assert.False(t, cfg.HasFirstSuperuser())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATA_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("TIMEZONE", "America/Sao_Paulo")
	t.Setenv("DB_CONNECT_BACKOFF", "500ms")
	t.Setenv("JWT_TTL_MINUTES", "15")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", cfg.Location.String())
	assert.Equal(t, 500*time.Millisecond, cfg.DBConnectBackoff)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
}

func TestLoadRejectsInvalidTrustedProxy(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("TIMEZONE", "")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,lb.internal")
	_, err := Load()
	assert.ErrorContains(t, err, `TRUSTED_PROXIES entry "lb.internal"`)
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err := Load()
	assert.ErrorContains(t, err, "TIMEZONE")
}

func TestValidateAggregatesProblems(t *testing.T) {
	cfg := Config{Port: "99999", DataBackend: "postgres", JWTSecret: "short", LogFormat: "xml", FirstSuperuserEmail: "root@x.com"}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"PORT", "DATABASE_URL", "JWT_SECRET", "LOG_FORMAT", "FIRST_SUPERUSER"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestDurationParsing(t *testing.T) {
	assert.Equal(t, 3*time.Second, duration("3", time.Second))
	assert.Equal(t, 2*time.Minute, duration("2m", time.Second))
	assert.Equal(t, time.Second, duration("soon", time.Second))
}
