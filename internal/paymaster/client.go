package paymaster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"invisiblewallet/internal/common"
	"invisiblewallet/internal/logging"
)

const basePath = "/paymaster/v1"

// Client talks to the sponsorship service. All calls carry the out-of-band
// API key; non-2xx responses surface as *common.ProtocolError with the
// upstream body attached and are never retried here.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     logging.Logger
}

// New builds a Client for the service at baseURL.
func New(baseURL, apiKey string, log logging.Logger) *Client {
	return &Client{baseURL: baseURL, apiKey: apiKey, http: &http.Client{}, log: log}
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
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
	if c.apiKey != "" {
		req.Header.Set(common.APIKeyHeaderName, c.apiKey)
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

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &common.ProtocolError{Endpoint: path, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", path, err)
		}
	}
	return nil
}

type buildTypedDataRequest struct {
	UserAddress      string `json:"userAddress"`
	Calls            []Call `json:"calls"`
	AccountClassHash string `json:"accountClassHash,omitempty"`
}

// BuildTypedData runs phase one: it asks the service for a signable typed
// payload covering the given calls. accountClassHash is set only when the
// account is not yet deployed.
func (c *Client) BuildTypedData(ctx context.Context, userAddress string, calls []Call, accountClassHash string) (*TypedData, error) {
	req := buildTypedDataRequest{UserAddress: userAddress, Calls: calls, AccountClassHash: accountClassHash}

	var td TypedData
	if err := c.do(ctx, http.MethodPost, basePath+"/build-typed-data", req, &td); err != nil {
		return nil, err
	}
	return &td, nil
}

type executeRequest struct {
	UserAddress    string          `json:"userAddress"`
	TypedData      string          `json:"typedData"`
	Signature      []string        `json:"signature"`
	DeploymentData *DeploymentData `json:"deploymentData,omitempty"`
}

type executeResponse struct {
	TransactionHash string `json:"transactionHash"`
}

// Execute runs phase two: it submits the signed payload (with optional
// deployment data) and returns the sponsored transaction's identifier.
func (c *Client) Execute(ctx context.Context, userAddress, typedDataJSON string, signature []string, deployment *DeploymentData) (string, error) {
	req := executeRequest{
		UserAddress:    userAddress,
		TypedData:      typedDataJSON,
		Signature:      signature,
		DeploymentData: deployment,
	}

	var resp executeResponse
	if err := c.do(ctx, http.MethodPost, basePath+"/execute", req, &resp); err != nil {
		return "", err
	}
	return resp.TransactionHash, nil
}

// AccountRewards queries remaining sponsored-transaction eligibility for an
// address. An empty response body or empty list is a valid zero, not an
// error.
func (c *Client) AccountRewards(ctx context.Context, address string) ([]Reward, error) {
	path := fmt.Sprintf("%s/accounts/%s/rewards", basePath, address)

	var rewards []Reward
	if err := c.do(ctx, http.MethodGet, path, nil, &rewards); err != nil {
		return nil, err
	}
	return rewards, nil
}

// EnrollAccount registers an address for sponsorship (the server-side
// best-effort enrollment relay).
func (c *Client) EnrollAccount(ctx context.Context, req EnrollmentRequest) error {
	path := fmt.Sprintf("%s/accounts/%s/rewards", basePath, req.Address)
	return c.do(ctx, http.MethodPost, path, req, nil)
}
