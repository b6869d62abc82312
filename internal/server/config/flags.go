package config

import (
	"flag"
	"os"

	"invisiblewallet/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   bind address for the HTTP endpoint
//	-d string   PostgreSQL DSN
//	-s string   JWT signing secret
//	-p string   paymaster base URL
//	-k string   paymaster API key
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-p", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.EndpointAddr, "a", cfg.EndpointAddr, "bind address for the HTTP endpoint")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "PostgreSQL DSN")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "JWT signing secret")
	fs.StringVar(&cfg.PaymasterBaseURL, "p", cfg.PaymasterBaseURL, "paymaster base URL")
	fs.StringVar(&cfg.PaymasterAPIKey, "k", cfg.PaymasterAPIKey, "paymaster API key")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
