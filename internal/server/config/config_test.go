package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":4000", c.EndpointAddr)
	assert.Equal(t, 24*time.Hour, c.TokenValidityDuration)
	assert.NotEmpty(t, c.DatabaseDSN)
	assert.NotEmpty(t, c.CounterAddress)
	assert.Empty(t, c.S3BaseEndpoint, "backups disabled by default")
}

func TestParseEnv_OverlaysOnlySetVariables(t *testing.T) {
	t.Setenv("ENDPOINT_ADDR", ":9999")
	t.Setenv("TOKEN_VALIDITY", "1h")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, ":9999", c.EndpointAddr)
	assert.Equal(t, time.Hour, c.TokenValidityDuration)
	// Untouched fields keep their defaults.
	assert.Equal(t, "secretKey", c.SecretKey)
}

func TestParseFlags(t *testing.T) {
	oldArgs := os.Args
	os.Args = []string{"server", "-a", ":8088", "-s", "flag-secret", "-unrelated", "x"}
	defer func() { os.Args = oldArgs }()

	var c Config
	c.LoadDefaults()
	parseFlags(&c)

	assert.Equal(t, ":8088", c.EndpointAddr)
	assert.Equal(t, "flag-secret", c.SecretKey)
	require.NotEmpty(t, c.DatabaseDSN)
}
