package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() *Config {
	cfg := &Config{}
	cfg.Services.Estimator.BaseURL = "http://localhost:8000"
	applyDefaults(cfg)
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "proposal-chat", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "production", cfg.Chat.Mode)
	assert.Equal(t, 1000, cfg.Chat.AutosaveDebounceMS)
	assert.Equal(t, "What's your name?", cfg.Chat.NamePrompt)
	assert.Equal(t, "What's your email?", cfg.Chat.EmailPrompt)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 30000, cfg.Services.Estimator.Timeout)
	assert.Equal(t, 30000, cfg.Services.Packager.Timeout)
}

func TestApplyDefaults_DoesNotOverrideExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Chat.Mode = "stage"
	cfg.Chat.AutosaveDebounceMS = 250
	cfg.Services.Estimator.Timeout = 5000
	applyDefaults(cfg)

	assert.Equal(t, "stage", cfg.Chat.Mode)
	assert.Equal(t, 250, cfg.Chat.AutosaveDebounceMS)
	assert.Equal(t, 5000, cfg.Services.Estimator.Timeout)
}

func TestValidateConfig(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validateConfig(validTestConfig()))
	})

	t.Run("missing estimator base url", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Services.Estimator.BaseURL = ""
		err := validateConfig(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "estimator.base_url")
	})

	t.Run("invalid mode", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Chat.Mode = "testing"
		err := validateConfig(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chat.mode")
	})

	t.Run("non-positive debounce", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Chat.AutosaveDebounceMS = -1
		require.Error(t, validateConfig(cfg))
	})

	t.Run("email alerts require addresses", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Notifications.Email.Enabled = true
		require.Error(t, validateConfig(cfg))

		cfg.Notifications.Email.Sender = "noreply@example.com"
		cfg.Notifications.Email.SalesAddress = "sales@example.com"
		require.NoError(t, validateConfig(cfg))
	})
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("ESTIMATOR_BASE_URL", "http://estimator:8000")
	t.Setenv("REDIS_ADDRESS", "redis:6379")

	cfg := &Config{}
	applyDefaults(cfg)
	overrideFromEnv(cfg)

	assert.Equal(t, "http://estimator:8000", cfg.Services.Estimator.BaseURL)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
}

func TestOverrideFromEnv_ConfigWins(t *testing.T) {
	t.Setenv("ESTIMATOR_BASE_URL", "http://from-env:8000")

	cfg := &Config{}
	cfg.Services.Estimator.BaseURL = "http://from-file:8000"
	applyDefaults(cfg)
	overrideFromEnv(cfg)

	assert.Equal(t, "http://from-file:8000", cfg.Services.Estimator.BaseURL)
}
