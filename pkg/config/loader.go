package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Validator is implemented by config structs with cross-field rules.
type Validator interface {
	Validate() error
}

// Load parses the process environment into a new T.
//
// Values from the given .env files (or ./.env when none are given) are applied
// first without overriding variables that are already set. Missing files are
// skipped. If T implements Validator, Validate runs after parsing.
func Load[T any](files ...string) (T, error) {
	var cfg T
	if err := loadEnvFiles(files...); err != nil {
		return cfg, err
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Join(ErrParsingConfig, err)
	}
	if v, ok := any(&cfg).(Validator); ok {
		if err := v.Validate(); err != nil {
			return cfg, errors.Join(ErrInvalidConfig, err)
		}
	}
	return cfg, nil
}

// MustLoad is Load for configuration the process cannot start without.
func MustLoad[T any](files ...string) T {
	cfg, err := Load[T](files...)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

func loadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}
