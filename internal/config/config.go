// Package config содержит логику чтения конфигурации сервиса вознаграждений.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса вознаграждений.
type Config struct {
	RunAddress         string `env:"RUN_ADDRESS"`
	DatabaseURI        string `env:"DATABASE_URI"`
	FileStorageAddress string `env:"FILE_STORAGE_ADDRESS"`
	ClaimTimezone      string `env:"CLAIM_TIMEZONE"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envFileStorageAddress := cfg.FileStorageAddress
	envClaimTimezone := cfg.ClaimTimezone

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.FileStorageAddress, "f", "", "file storage address for claim screenshots")
	flag.StringVar(&cfg.ClaimTimezone, "t", "UTC", "time zone used to decide the claim calendar day")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envFileStorageAddress != "" {
		cfg.FileStorageAddress = envFileStorageAddress
	}
	if envClaimTimezone != "" {
		cfg.ClaimTimezone = envClaimTimezone
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.ClaimTimezone == "" {
		cfg.ClaimTimezone = "UTC"
	}

	return cfg, nil
}
