package config

import "github.com/caarlos0/env/v11"

// parseEnv overlays cfg with values from environment variables. Unset
// variables leave the current value untouched.
func parseEnv(cfg *Config) {
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}
}
