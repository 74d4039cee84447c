// Package config loads and validates server configuration from an optional
// YAML file, falling back to defaults suitable for local development.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const DefaultConfigPath = "config.yaml"

type Config struct {
	Addr          string        `koanf:"addr"           validate:"required"`
	DBPath        string        `koanf:"db_path"        validate:"required"`
	MigrationsDir string        `koanf:"migrations_dir"`
	JWTSecret     string        `koanf:"jwt_secret"`
	TokenTTL      time.Duration `koanf:"token_ttl"      validate:"min=1m"`
	LogLevel      string        `koanf:"log_level"      validate:"oneof=debug info warn error"`
	SeedQuestions bool          `koanf:"seed_questions"`
}

func defaults() *Config {
	return &Config{
		Addr:          ":8080",
		DBPath:        "mindcare.db",
		TokenTTL:      7 * 24 * time.Hour,
		LogLevel:      "info",
		SeedQuestions: true,
	}
}

// Load reads the config file at path (DefaultConfigPath when empty). A missing
// file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	cfg := defaults()

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	} else if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
