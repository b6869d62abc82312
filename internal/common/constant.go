// Package common contains shared constants and sentinel errors used across
// Invisible Wallet components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token on
// credential-store requests.
const AuthorizationHeaderName = "Authorization"

// APIKeyHeaderName is the HTTP header carrying the paymaster API key.
const APIKeyHeaderName = "api-key"
