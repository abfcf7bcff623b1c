package config

import (
	"fmt"
	"runtime"

	"github.com/kelseyhightower/envconfig"
)

// Config contains all configuration parameters for the application.
type Config struct {
	Port       string `envconfig:"PORT" default:"8080"`
	DBPath     string `envconfig:"DB_PATH" default:"walletd.db"`
	KDFWorkers int    `envconfig:"KDF_WORKERS" default:"0"` // 0 = NumCPU
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	cfg = &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	if cfg.KDFWorkers <= 0 {
		cfg.KDFWorkers = runtime.NumCPU()
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetDBPath returns the SQLite database path from configuration
func GetDBPath() string {
	return Get().DBPath
}

// GetKDFWorkers returns the KDF worker pool size from configuration
func GetKDFWorkers() int {
	return Get().KDFWorkers
}
