// internal/common/config/loader.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file values and use the
// TRIP_ prefix with underscores (e.g. TRIP_GENAI_API_KEY).
func Load(configPath string) (*Config, error) {
	// .env is optional; ignore if absent
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TRIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional when env vars cover required settings.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "trip-planner-ai")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 15000)
	v.SetDefault("server.write_timeout", 120000)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)

	v.SetDefault("genai.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("genai.model", "gemini-2.0-flash")
	v.SetDefault("genai.timeout", 60000)

	v.SetDefault("search.base_url", "https://serpapi.com")
	v.SetDefault("search.timeout", 15000)
	v.SetDefault("search.cache_ttl", 300)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", false)

	v.SetDefault("sessions.ttl", 3600)
	v.SetDefault("sessions.cleanup_interval", 600)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

func validateConfig(cfg *Config) error {
	if cfg.GenAI.APIKey == "" {
		return fmt.Errorf("genai.api_key is required (set TRIP_GENAI_API_KEY)")
	}
	if cfg.GenAI.BaseURL == "" {
		return fmt.Errorf("genai.base_url is required")
	}
	if cfg.GenAI.Model == "" {
		return fmt.Errorf("genai.model is required")
	}
	if cfg.GenAI.Timeout <= 0 {
		return fmt.Errorf("genai.timeout must be positive")
	}
	if cfg.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if cfg.Sessions.TTL <= 0 {
		return fmt.Errorf("sessions.ttl must be positive")
	}
	return nil
}

// GetDuration converts a millisecond config value to a time.Duration.
func GetDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// GetSeconds converts a second config value to a time.Duration.
func GetSeconds(s int) time.Duration {
	return time.Duration(s) * time.Second
}
