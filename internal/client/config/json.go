package config

import (
	"encoding/json"
	"os"

	"invisiblewallet/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Empty fields
// leave the current Config value untouched.
type JsonConfig struct {
	APIBaseURL       string `json:"api_base_url"`
	PaymasterBaseURL string `json:"paymaster_base_url"`
	PaymasterAPIKey  string `json:"paymaster_api_key"`
	RPCURL           string `json:"rpc_url"`
	ChainID          string `json:"chain_id"`
	CounterAddress   string `json:"counter_address"`
	ArgentClassHash  string `json:"argent_class_hash"`
	BraavosClassHash string `json:"braavos_class_hash"`
	LocalStorePath   string `json:"local_store_path"`
}

// parseJson overlays cfg with values loaded from a JSON file whose path is
// resolved from the -c/-config flags. Missing flag means no JSON overlay.
// Panics on read or unmarshal errors (caller should recover if desired).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overlay(&cfg.APIBaseURL, jc.APIBaseURL)
	overlay(&cfg.PaymasterBaseURL, jc.PaymasterBaseURL)
	overlay(&cfg.PaymasterAPIKey, jc.PaymasterAPIKey)
	overlay(&cfg.RPCURL, jc.RPCURL)
	overlay(&cfg.ChainID, jc.ChainID)
	overlay(&cfg.CounterAddress, jc.CounterAddress)
	overlay(&cfg.ArgentClassHash, jc.ArgentClassHash)
	overlay(&cfg.BraavosClassHash, jc.BraavosClassHash)
	overlay(&cfg.LocalStorePath, jc.LocalStorePath)
}
