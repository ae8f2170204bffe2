// Package config loads typed configuration from the environment.
//
// Structs describe their variables with caarlos0/env tags; optional .env
// files are applied first with godotenv and never override variables that are
// already set.
//
//	type Config struct {
//	    JWTSecret string `env:"JWT_SECRET,required"`
//	    Backend   string `env:"COUNTER_BACKEND" envDefault:"postgres"`
//	}
//
//	cfg, err := config.Load[Config]()
//
// A struct whose pointer implements Validator gets its Validate method called
// after parsing, so invalid combinations fail at startup.
package config
