package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	require.Equal(t, ":8081", cfg.HTTPAddr)
	require.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 24*time.Hour, cfg.PaymentHold)
	require.Equal(t, 5*time.Minute, cfg.SweepInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092 ,")
	t.Setenv("PAYMENT_HOLD", "1h30m")
	t.Setenv("SWEEP_INTERVAL", "not-a-duration")

	cfg := Load()

	require.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 90*time.Minute, cfg.PaymentHold)
	// parse gagal -> fallback ke default
	require.Equal(t, 5*time.Minute, cfg.SweepInterval)
}
