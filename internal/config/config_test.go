package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_JWT_SECRET", "test-secret")
	t.Setenv("MESSAGING_ENABLED", "false")
	t.Setenv("CACHE_ENABLED", "false")
}

func TestNew_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "noop", cfg.Cache.Driver)
	assert.Equal(t, "noop", cfg.Messaging.Driver)
	assert.Equal(t, cfg.Database.WriterDSN, cfg.Database.ReaderDSN)
	assert.Equal(t, "mock", cfg.Payment.Driver)
	assert.Equal(t, "INR", cfg.Payment.Currency)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	require.NotNil(t, cfg.Restaurant.Location)
	assert.Equal(t, "UTC", cfg.Restaurant.Location.String())
	assert.Equal(t, 3, cfg.Messaging.Workers.MaxRedeliveries)
	assert.Equal(t, "tableside.events.dead-letter", cfg.Messaging.Kafka.DeadLetterTopic)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing jwt secret", env: map[string]string{"AUTH_JWT_SECRET": ""}},
		{name: "bad payment driver", env: map[string]string{"PAYMENT_DRIVER": "stripe"}},
		{name: "ai without key", env: map[string]string{"AI_ENABLED": "true", "AI_API_KEY": ""}},
		{name: "bad timezone", env: map[string]string{"RESTAURANT_TIMEZONE": "Mars/Olympus"}},
		{name: "bad port", env: map[string]string{"HTTP_PORT": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := New()
			require.Error(t, err)
		})
	}
}

func TestGetEnvAsStringSlice(t *testing.T) {
	t.Setenv("TEST_BROKERS", " a:1, ,b:2 ")
	assert.Equal(t, []string{"a:1", "b:2"}, getEnvAsStringSlice("TEST_BROKERS", nil))
	assert.Equal(t, []string{"x"}, getEnvAsStringSlice("TEST_BROKERS_MISSING", []string{"x"}))
}

func TestLookup_FallsBackOnMalformedValues(t *testing.T) {
	t.Setenv("TEST_RATIO", "0.25")
	t.Setenv("TEST_BAD_INT", "twelve")
	t.Setenv("TEST_BLANK_BOOL", "  ")
	t.Setenv("TEST_ONLY_COMMAS", ",,")

	assert.InDelta(t, 0.25, getEnvAsFloat("TEST_RATIO", 1), 1e-9)
	assert.Equal(t, 7, getEnvAsInt("TEST_BAD_INT", 7))
	assert.True(t, getEnvAsBool("TEST_BLANK_BOOL", true))
	assert.Equal(t, []string{"d"}, getEnvAsStringSlice("TEST_ONLY_COMMAS", []string{"d"}))
}
