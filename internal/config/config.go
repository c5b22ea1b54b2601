package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Database  Database  `mapstructure:"database"`
	Import    Import    `mapstructure:"import"`
	Reconcile Reconcile `mapstructure:"reconcile"`
	Refdata   Refdata   `mapstructure:"refdata"`
	Logger    Logger    `mapstructure:"logger"`
	Server    Server    `mapstructure:"server"`
}

// Database selects the primary sqlite backend and the flat-file fallback.
type Database struct {
	DSN          string `mapstructure:"dsn"`
	FallbackPath string `mapstructure:"fallback_path"`
}

// Import holds tunables for the CSV import pipeline.
type Import struct {
	MaxErrorDetails int `mapstructure:"max_error_details"`
}

// Reconcile holds tunables for the matching engine.
type Reconcile struct {
	MaxIterations int `mapstructure:"max_iterations"`
}

// Refdata configures the optional remote contract-reference refresh.
// An empty URL disables it.
type Refdata struct {
	URL            string  `mapstructure:"url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("database.dsn", "journal.db")
	viper.SetDefault("database.fallback_path", "journal_trades.json")
	viper.SetDefault("import.max_error_details", 10)
	viper.SetDefault("reconcile.max_iterations", 650)
	viper.SetDefault("refdata.rate_limit", 5) // requests per second
	viper.SetDefault("refdata.rate_limit_burst", 2)
	viper.SetDefault("server.port", 8089)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
