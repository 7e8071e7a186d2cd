package config

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBFF_Defaults(t *testing.T) {

	cfg, err := LoadBFF()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.SubmitTimeout)
	assert.True(t, cfg.DefaultDeliveryFee.Equal(decimal.NewFromInt(30)))
	assert.True(t, cfg.DefaultMinOrder.IsZero())
	assert.Equal(t, 30*24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadBFF_FromEnvironment(t *testing.T) {
	t.Setenv("SUBMIT_TIMEOUT", "3s")
	t.Setenv("DEFAULT_DELIVERY_FEE", "25.50")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := LoadBFF()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, "25.5", cfg.DefaultDeliveryFee.String())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoadBFF_RejectsMalformedValues(t *testing.T) {

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad_duration", "SUBMIT_TIMEOUT", "soon"},
		{"bad_int", "BREAKER_MAX_FAILURES", "many"},
		{"bad_decimal", "DEFAULT_DELIVERY_FEE", "free"},
		{"negative_fee", "DEFAULT_DELIVERY_FEE", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadBFF()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadOrderStore(t *testing.T) {
	t.Setenv("PLATFORM_FEE", "7")
	t.Setenv("DB_HOST", "db")

	cfg, err := LoadOrderStore()
	require.NoError(t, err)
	assert.True(t, cfg.PlatformFee.Equal(decimal.NewFromInt(7)))
	assert.Equal(t, 35*time.Minute, cfg.OrderETA)
	assert.Equal(t, "host=db port=5432 user=fooddash password=fooddash dbname=orders sslmode=disable", cfg.DB.DSN())
}

func TestLoadKitchen(t *testing.T) {
	t.Setenv("STEP_DELAY", "250ms")

	cfg, err := LoadKitchen()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.StepDelay)
	assert.Equal(t, "kitchen-sim", cfg.GroupID)
	assert.Equal(t, 3, cfg.MaxRetries)
}

func TestNewLogger(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("chatty").GetLevel())
}

func TestNewRedisClient(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), srv.Addr(), "")
	require.NoError(t, err)
	defer client.Close()

	srv.Close()
	_, err = NewRedisClient(context.Background(), srv.Addr(), "")
	assert.Error(t, err)
}
