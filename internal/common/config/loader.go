// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like SERVICES_ESTIMATOR_BASE_URL
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, ignored when absent
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideFromEnv(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	for _, p := range possiblePaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// overrideFromEnv fills endpoints still empty after unmarshal. Viper's
// AutomaticEnv does not reach into nested structs during Unmarshal.
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("ESTIMATOR_BASE_URL"); v != "" && cfg.Services.Estimator.BaseURL == "" {
		cfg.Services.Estimator.BaseURL = v
	}
	if v := os.Getenv("DOCUMENTS_BASE_URL"); v != "" && cfg.Services.Documents.BaseURL == "" {
		cfg.Services.Documents.BaseURL = v
	}
	if v := os.Getenv("LEADS_BASE_URL"); v != "" && cfg.Services.Leads.BaseURL == "" {
		cfg.Services.Leads.BaseURL = v
	}
	if v := os.Getenv("PACKAGER_BASE_URL"); v != "" && cfg.Services.Packager.BaseURL == "" {
		cfg.Services.Packager.BaseURL = v
	}
	if v := os.Getenv("REDIS_ADDRESS"); v != "" && cfg.Redis.Address == "" {
		cfg.Redis.Address = v
	}
}
