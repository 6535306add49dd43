// Package config loads analyzer settings from environment variables and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the process-wide configuration.
type Config struct {
	Port           string
	ProfilesPath   string // empty uses the embedded catalog
	DefaultBank    string // empty auto-detects
	LineTolerance  float64
	MaxUploadBytes int64
	Debug          bool
}

// Load reads configuration from the environment.
// It loads .env from the current directory if present, or envPath when given.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	tolerance, err := parseFloatEnv("ANALYZER_LINE_TOLERANCE", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYZER_LINE_TOLERANCE: %w", err)
	}
	uploadMB, err := parseInt64Env("ANALYZER_MAX_UPLOAD_MB", 32)
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYZER_MAX_UPLOAD_MB: %w", err)
	}

	cfg := &Config{
		Port:           getEnvOrDefault("ANALYZER_PORT", "8080"),
		ProfilesPath:   os.Getenv("ANALYZER_PROFILES"),
		DefaultBank:    os.Getenv("ANALYZER_BANK"),
		LineTolerance:  tolerance,
		MaxUploadBytes: uploadMB << 20,
		Debug:          os.Getenv("ANALYZER_DEBUG") == "true",
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.LineTolerance <= 0 {
		return fmt.Errorf("line tolerance must be positive, got %v", c.LineTolerance)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d bytes", c.MaxUploadBytes)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q: %w", c.Port, err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.ParseFloat(value, 64)
}

func parseInt64Env(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.ParseInt(value, 10, 64)
}
