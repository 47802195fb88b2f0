package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig
	Database   PostgresConfig `mapstructure:"database"`
	Redis      RedisConfig
	Ingest     IngestConfig
	Enrichment EnrichmentConfig
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	EnableMock      bool          `mapstructure:"enable_mock"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type IngestConfig struct {
	// APIKey is the shared secret devices must present in X-API-Key.
	APIKey string `mapstructure:"api_key"`
	// SessionSize is the number of raw readings aggregated into one session.
	SessionSize int `mapstructure:"session_size"`
	// RollingWindow is the K used for the live rolling average.
	RollingWindow int `mapstructure:"rolling_window"`
	// OfflineAfter is how long after the last reading a device is
	// reported as disconnected.
	OfflineAfter time.Duration `mapstructure:"offline_after"`
}

type EnrichmentConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetEnvPrefix("TDSHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Load config file if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("server.enable_mock", false)

	// Database defaults. Empty-string defaults register the keys with
	// viper so environment-only values survive Unmarshal.
	viper.SetDefault("database.host", "")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "tdshub")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "tdshub")
	viper.SetDefault("database.sslmode", "disable")

	// Redis defaults; an empty host selects the in-memory latest cache
	viper.SetDefault("redis.host", "")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Ingest defaults
	viper.SetDefault("ingest.api_key", "changeme")
	viper.SetDefault("ingest.session_size", 10)
	viper.SetDefault("ingest.rolling_window", 10)
	viper.SetDefault("ingest.offline_after", "30s")

	// Enrichment defaults
	viper.SetDefault("enrichment.base_url", "")
	viper.SetDefault("enrichment.api_key", "")
	viper.SetDefault("enrichment.model", "gpt-4o-mini")
	viper.SetDefault("enrichment.timeout", "20s")
}

func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if config.Ingest.SessionSize <= 0 {
		return fmt.Errorf("ingest session_size must be positive")
	}
	if config.Ingest.RollingWindow <= 0 {
		return fmt.Errorf("ingest rolling_window must be positive")
	}
	if config.Enrichment.Timeout <= 0 {
		return fmt.Errorf("enrichment timeout must be positive")
	}
	return nil
}
