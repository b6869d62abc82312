package config

import (
	"encoding/json"
	"os"
	"time"

	"invisiblewallet/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Empty fields
// leave the current Config value untouched; durations use Go notation
// ("24h").
type JsonConfig struct {
	EndpointAddr     string `json:"endpoint_addr"`
	DatabaseDSN      string `json:"database_dsn"`
	SecretKey        string `json:"secret_key"`
	TokenValidity    string `json:"token_validity"`
	PaymasterBaseURL string `json:"paymaster_base_url"`
	PaymasterAPIKey  string `json:"paymaster_api_key"`
	CounterAddress   string `json:"counter_address"`
	S3RootUser       string `json:"s3_root_user"`
	S3RootPassword   string `json:"s3_root_password"`
	S3Bucket         string `json:"s3_bucket"`
	S3Region         string `json:"s3_region"`
	S3BaseEndpoint   string `json:"s3_base_endpoint"`
}

// parseJson overlays cfg with values loaded from a JSON file whose path is
// resolved from the -c/-config flags. Missing flag means no JSON overlay.
// Panics on read or unmarshal errors.
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
	overlay(&cfg.EndpointAddr, jc.EndpointAddr)
	overlay(&cfg.DatabaseDSN, jc.DatabaseDSN)
	overlay(&cfg.SecretKey, jc.SecretKey)
	overlay(&cfg.PaymasterBaseURL, jc.PaymasterBaseURL)
	overlay(&cfg.PaymasterAPIKey, jc.PaymasterAPIKey)
	overlay(&cfg.CounterAddress, jc.CounterAddress)
	overlay(&cfg.S3RootUser, jc.S3RootUser)
	overlay(&cfg.S3RootPassword, jc.S3RootPassword)
	overlay(&cfg.S3Bucket, jc.S3Bucket)
	overlay(&cfg.S3Region, jc.S3Region)
	overlay(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)

	if jc.TokenValidity != "" {
		d, err := time.ParseDuration(jc.TokenValidity)
		if err != nil {
			panic(err)
		}
		cfg.TokenValidityDuration = d
	}
}
