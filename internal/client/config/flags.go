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
//	-a string   base URL of the credential-store backend
//	-p string   base URL of the paymaster service
//	-k string   paymaster API key
//	-r string   JSON-RPC node URL
//	-d string   path to the local store database
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-p", "-k", "-r", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "address of the credential-store backend")
	fs.StringVar(&cfg.PaymasterBaseURL, "p", cfg.PaymasterBaseURL, "paymaster base URL")
	fs.StringVar(&cfg.PaymasterAPIKey, "k", cfg.PaymasterAPIKey, "paymaster API key")
	fs.StringVar(&cfg.RPCURL, "r", cfg.RPCURL, "JSON-RPC node URL")
	fs.StringVar(&cfg.LocalStorePath, "d", cfg.LocalStorePath, "local store database path")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
