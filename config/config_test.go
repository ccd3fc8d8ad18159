package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"SYMBOL", "INTERVAL", "POLICY", "POLL_INTERVAL", "CANDLE_LIMIT", "MACD_FAST", "BUFFER_CAP", "RESTORE_STATE"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "BTCUSDT", cfg.Symbol)
	assert.Equal(t, "4h", cfg.Interval)
	assert.Equal(t, 500, cfg.CandleLimit)
	assert.Equal(t, 12, cfg.MACD.Fast)
	assert.Equal(t, 26, cfg.MACD.Slow)
	assert.Equal(t, 9, cfg.MACD.Signal)
	assert.Equal(t, 7, cfg.Volume.Short)
	assert.Equal(t, 20, cfg.Volume.Long)
	assert.Equal(t, "jerk", cfg.Policy)
	assert.Equal(t, 5, cfg.BufferCap)
	assert.Equal(t, DefaultJerkPollInterval, cfg.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.False(t, cfg.RestoreState)
	require.NoError(t, cfg.Validate())
}

func TestFromEnv_DifferencePolicyDefaults(t *testing.T) {
	t.Setenv("POLICY", "difference")
	t.Setenv("POLL_INTERVAL", "")
	t.Setenv("CANDLE_LIMIT", "")

	cfg := FromEnv()
	assert.Equal(t, DefaultDifferencePollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultDifferenceCandleLimit, cfg.CandleLimit)
	require.NoError(t, cfg.Validate())

	t.Setenv("POLL_INTERVAL", "15s")
	t.Setenv("CANDLE_LIMIT", "300")
	cfg = FromEnv()
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.Equal(t, 300, cfg.CandleLimit)
}

func TestFromEnv_RestoreState(t *testing.T) {
	t.Setenv("RESTORE_STATE", "true")
	assert.True(t, FromEnv().RestoreState)

	t.Setenv("RESTORE_STATE", "maybe")
	assert.False(t, FromEnv().RestoreState)
}

func TestFromEnv_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("MACD_FAST", "twelve")
	t.Setenv("FETCH_TIMEOUT", "soon")
	cfg := FromEnv()
	assert.Equal(t, 12, cfg.MACD.Fast)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
}

func TestApplyYAML_Overrides(t *testing.T) {
	t.Setenv("SYMBOL", "BTCUSDT")
	t.Setenv("CANDLE_LIMIT", "")
	path := filepath.Join(t.TempDir(), "signald.yaml")
	body := `
symbol: ethusdt
interval: 1h
macd:
  fast: 8
  slow: 21
  signal: 5
policy: difference
poll_interval: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg := FromEnv()
	require.NoError(t, cfg.ApplyYAML(path))

	assert.Equal(t, "ETHUSDT", cfg.Symbol)
	assert.Equal(t, "1h", cfg.Interval)
	assert.Equal(t, 8, cfg.MACD.Fast)
	assert.Equal(t, 21, cfg.MACD.Slow)
	assert.Equal(t, 5, cfg.MACD.Signal)
	assert.Equal(t, "difference", cfg.Policy)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, DefaultDifferenceCandleLimit, cfg.CandleLimit)
	// untouched keys keep their env values
	assert.Equal(t, 7, cfg.Volume.Short)
	require.NoError(t, cfg.Validate())
}

func TestApplyYAML_PolicyDefaults(t *testing.T) {
	for _, k := range []string{"POLICY", "POLL_INTERVAL", "CANDLE_LIMIT"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()

	t.Run("policy only", func(t *testing.T) {
		path := filepath.Join(dir, "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("policy: difference\n"), 0o644))

		cfg := FromEnv()
		require.Equal(t, DefaultJerkCandleLimit, cfg.CandleLimit)
		require.NoError(t, cfg.ApplyYAML(path))
		assert.Equal(t, DefaultDifferenceCandleLimit, cfg.CandleLimit)
		assert.Equal(t, DefaultDifferencePollInterval, cfg.PollInterval)
	})

	t.Run("explicit values kept", func(t *testing.T) {
		path := filepath.Join(dir, "explicit.yaml")
		body := "policy: difference\ncandle_limit: 250\npoll_interval: 2m\nrestore_state: true\n"
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

		cfg := FromEnv()
		require.NoError(t, cfg.ApplyYAML(path))
		assert.Equal(t, 250, cfg.CandleLimit)
		assert.Equal(t, 2*time.Minute, cfg.PollInterval)
		assert.True(t, cfg.RestoreState)
	})

	t.Run("env limit survives policy switch", func(t *testing.T) {
		t.Setenv("CANDLE_LIMIT", "400")
		path := filepath.Join(dir, "policy.yaml")

		cfg := FromEnv()
		require.NoError(t, cfg.ApplyYAML(path))
		assert.Equal(t, 400, cfg.CandleLimit)
		assert.Equal(t, DefaultDifferencePollInterval, cfg.PollInterval)
	})
}

func TestApplyYAML_MissingFile(t *testing.T) {
	cfg := FromEnv()
	assert.Error(t, cfg.ApplyYAML(filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty symbol", func(c *Config) { c.Symbol = "" }},
		{"bad interval", func(c *Config) { c.Interval = "7m" }},
		{"fast not below slow", func(c *Config) { c.MACD.Fast = 26 }},
		{"zero volume window", func(c *Config) { c.Volume.Long = 0 }},
		{"limit below warm-up", func(c *Config) { c.CandleLimit = 20 }},
		{"limit above page size", func(c *Config) { c.CandleLimit = 1500 }},
		{"unknown policy", func(c *Config) { c.Policy = "rsi" }},
		{"zero buffer cap", func(c *Config) { c.BufferCap = 0 }},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }},
		{"telegram half configured", func(c *Config) { c.TelegramBotToken = "tok" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FromEnv()
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
