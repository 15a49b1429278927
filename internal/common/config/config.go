// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Services      ServicesConfig     `mapstructure:"services"`
	Redis         RedisConfig        `mapstructure:"redis"`
	Chat          ChatConfig         `mapstructure:"chat"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServicesConfig holds the endpoints of the five external collaborators.
type ServicesConfig struct {
	Estimator ServiceEndpoint `mapstructure:"estimator"`
	Documents ServiceEndpoint `mapstructure:"documents"`
	Leads     ServiceEndpoint `mapstructure:"leads"`
	Packager  ServiceEndpoint `mapstructure:"packager"`
}

type ServiceEndpoint struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ChatConfig holds dialogue behavior settings.
type ChatConfig struct {
	Mode               string `mapstructure:"mode"` // production | stage
	AutosaveDebounceMS int    `mapstructure:"autosave_debounce_ms"`
	NamePrompt         string `mapstructure:"name_prompt"`
	EmailPrompt        string `mapstructure:"email_prompt"`
}

// NotificationConfig holds settings for the optional SES sales alert.
type NotificationConfig struct {
	Email struct {
		Enabled      bool   `mapstructure:"enabled"`
		Region       string `mapstructure:"region"`
		Sender       string `mapstructure:"sender"`
		SalesAddress string `mapstructure:"sales_address"`
	} `mapstructure:"email"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

func validateConfig(cfg *Config) error {
	if cfg.Services.Estimator.BaseURL == "" {
		return fmt.Errorf("services.estimator.base_url is required")
	}
	if cfg.Chat.AutosaveDebounceMS <= 0 {
		return fmt.Errorf("chat.autosave_debounce_ms must be positive")
	}
	switch cfg.Chat.Mode {
	case "production", "stage":
	default:
		return fmt.Errorf("chat.mode must be 'production' or 'stage', got %q", cfg.Chat.Mode)
	}
	if cfg.Notifications.Email.Enabled {
		if cfg.Notifications.Email.Sender == "" || cfg.Notifications.Email.SalesAddress == "" {
			return fmt.Errorf("notifications.email requires sender and sales_address when enabled")
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "proposal-chat"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Chat.Mode == "" {
		cfg.Chat.Mode = "production"
	}
	if cfg.Chat.AutosaveDebounceMS == 0 {
		cfg.Chat.AutosaveDebounceMS = 1000
	}
	if cfg.Chat.NamePrompt == "" {
		cfg.Chat.NamePrompt = "What's your name?"
	}
	if cfg.Chat.EmailPrompt == "" {
		cfg.Chat.EmailPrompt = "What's your email?"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9102"
	}
	applyEndpointDefaults(&cfg.Services.Estimator)
	applyEndpointDefaults(&cfg.Services.Documents)
	applyEndpointDefaults(&cfg.Services.Leads)
	applyEndpointDefaults(&cfg.Services.Packager)
}

func applyEndpointDefaults(ep *ServiceEndpoint) {
	if ep.Timeout == 0 {
		ep.Timeout = 30000
	}
}
