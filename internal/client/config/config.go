// Package config handles configuration for the wallet client: defaults,
// JSON overlay, and command-line flags, later sources taking precedence.
package config

// Config holds runtime settings for the wallet CLI.
//
// Fields:
//   - APIBaseURL: base URL of the credential-store backend.
//   - PaymasterBaseURL / PaymasterAPIKey: sponsorship service endpoint and
//     the API key supplied out of band.
//   - RPCURL: JSON-RPC node used for contract reads.
//   - ChainID: canonical hex felt of the target chain's id short string.
//   - CounterAddress: the demo counter contract the wallet invokes.
//   - ArgentClassHash / BraavosClassHash: account class references used for
//     deterministic address derivation.
//   - LocalStorePath: sqlite file holding the cached user record.
type Config struct {
	APIBaseURL       string
	PaymasterBaseURL string
	PaymasterAPIKey  string
	RPCURL           string
	ChainID          string
	CounterAddress   string
	ArgentClassHash  string
	BraavosClassHash string
	LocalStorePath   string
}

// LoadDefaults populates c with the Sepolia testnet setup.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:4000"
	c.PaymasterBaseURL = "https://sepolia.api.avnu.fi"
	c.PaymasterAPIKey = ""
	c.RPCURL = "https://free-rpc.nethermind.io/sepolia-juno/"
	c.ChainID = "0x534e5f5345504f4c4941" // "SN_SEPOLIA"
	c.CounterAddress = "0x51fde0f43ddd951ab883d2736427a0c6fd96fe4d9b13f7c54cbfce8c1a5a325"
	c.ArgentClassHash = "0x36078334509b514626504edc9fb252328d1a240e4e948bef8d0c08dff45927f"
	c.BraavosClassHash = "0x2c2b8f559e1221468140ad7b2352b1a5be32660d0bf1a3ae3a054a4ec5254e4"
	c.LocalStorePath = "wallet.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
