package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"ADDR", "DB_HOST", "PAYMENT_TIMEOUT", "KAFKA_BROKERS", "JWT_TTL_MINUTES"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "db", cfg.DBHost)
	assert.Equal(t, 10*time.Second, cfg.PaymentTimeout)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PAYMENT_TIMEOUT", "3s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("LOCK_TIMEOUT_SECONDS", "nope")
	t.Setenv("SWEEP_INTERVAL", "15m")

	cfg := Load()

	assert.Equal(t, 3*time.Second, cfg.PaymentTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5, cfg.LockTimeoutSec)
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
}

func TestValidateRequiresSecrets(t *testing.T) {
	err := Config{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "PAYMENT_SECRET_KEY")

	assert.NoError(t, Config{JWTSecret: "s", PaymentSecretKey: "p"}.Validate())
}

func TestDSN(t *testing.T) {
	cfg := Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "3306", DBName: "roomescape", DBTimeout: "5s"}
	dsn := cfg.DSN()

	assert.True(t, strings.HasPrefix(dsn, "u:p@tcp(h:3306)/roomescape?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}
