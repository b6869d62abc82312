// Package api is the HTTP client for the credential-store backend. It
// carries the bearer token on authorized calls and maps the store's failure
// classes onto the shared sentinel errors: 401-class responses become
// authentication failures (never retried silently), a missing key becomes
// CredentialNotFound, and anything else non-2xx surfaces as a ProtocolError
// with the upstream body attached.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"invisiblewallet/internal/common"
	"invisiblewallet/internal/wallet"
)

// Client talks to the credential-store REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client for the backend at baseURL.
func New(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{}}
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// Profile is the user's stored profile. It never carries key ciphertexts;
// those travel only through GetPrivateKey.
type Profile struct {
	Email            string `json:"email"`
	ArgentPublicKey  string `json:"argent_public_key,omitempty"`
	BraavosPublicKey string `json:"braavos_public_key,omitempty"`
}

// AddressFor returns the stored account address for a kind, "" if absent.
func (p *Profile) AddressFor(kind wallet.Kind) string {
	switch kind {
	case wallet.KindArgent:
		return p.ArgentPublicKey
	case wallet.KindBraavos:
		return p.BraavosPublicKey
	}
	return ""
}

// UpdateProfileRequest writes one wallet credential: the deployed address
// and the password-encrypted private key for one account kind.
type UpdateProfileRequest struct {
	PublicKey  string      `json:"publicKey"`
	PrivateKey string      `json:"privateKey"`
	Account    wallet.Kind `json:"account"`
}

func (c *Client) do(ctx context.Context, method, path, token string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", path, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return common.ErrAuthenticationFailed
	case resp.StatusCode == http.StatusNotFound:
		return common.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &common.ProtocolError{Endpoint: path, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", path, err)
		}
	}
	return nil
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup creates a new account and returns its bearer token.
func (c *Client) Signup(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/user/signup", "", credentialsRequest{email, password}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login authenticates and returns a fresh bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/user/login", "", credentialsRequest{email, password}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

type profileResponse struct {
	User Profile `json:"user"`
}

// GetProfile fetches the stored profile.
func (c *Client) GetProfile(ctx context.Context, token string) (*Profile, error) {
	var resp profileResponse
	if err := c.do(ctx, http.MethodGet, "/api/profile", token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// UpdateProfile persists a wallet credential. The store keeps it idempotent:
// re-sending the identical credential succeeds without effect.
func (c *Client) UpdateProfile(ctx context.Context, token string, req UpdateProfileRequest) error {
	return c.do(ctx, http.MethodPut, "/api/profile", token, req, nil)
}

type privateKeyResponse struct {
	PrivateKey string `json:"privateKey"`
}

// GetPrivateKey fetches the encrypted private key ciphertext for a kind.
// A store without that credential yields common.ErrCredentialNotFound.
func (c *Client) GetPrivateKey(ctx context.Context, token string, kind wallet.Kind) (string, error) {
	var resp privateKeyResponse
	path := fmt.Sprintf("/api/profile/%s/privatekey", kind)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrCredentialNotFound
		}
		return "", err
	}
	return resp.PrivateKey, nil
}

type sponsorRequest struct {
	UserAddress string `json:"userAddress"`
}

// Sponsor asks the backend to enroll an address for fee sponsorship.
// Callers treat failure as best-effort: deployment does not depend on it.
func (c *Client) Sponsor(ctx context.Context, token, userAddress string) error {
	return c.do(ctx, http.MethodPost, "/api/wallet/sponsor", token, sponsorRequest{userAddress}, nil)
}
