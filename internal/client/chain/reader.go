// Package chain reads contract state over StarkNet JSON-RPC. Only the call
// surface the wallet needs is implemented: a view function invocation at the
// latest block, decoded as felt hex strings.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"invisiblewallet/internal/common"
	"invisiblewallet/internal/starkx"
)

// Reader issues read-only calls against a StarkNet JSON-RPC node.
type Reader struct {
	rpcURL string
	http   *http.Client
}

// NewReader builds a Reader for the node at rpcURL.
func NewReader(rpcURL string) *Reader {
	return &Reader{rpcURL: rpcURL, http: &http.Client{}}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type functionCall struct {
	ContractAddress    string   `json:"contract_address"`
	EntryPointSelector string   `json:"entry_point_selector"`
	Calldata           []string `json:"calldata"`
}

// Call invokes a view function on contract at the latest block and returns
// the raw felt hex results.
func (r *Reader) Call(ctx context.Context, contract, method string, calldata []string) ([]string, error) {
	if calldata == nil {
		calldata = []string{}
	}
	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  "starknet_call",
		Params: []any{
			functionCall{
				ContractAddress:    contract,
				EntryPointSelector: starkx.SelectorHex(method),
				Calldata:           calldata,
			},
			"latest",
		},
		ID: 1,
	}

	raw, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("starknet_call: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.rpcURL, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("starknet_call: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("starknet_call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("starknet_call: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &common.ProtocolError{Endpoint: "starknet_call", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("starknet_call: decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("starknet_call: rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	var result []string
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return nil, fmt.Errorf("starknet_call: decode result: %w", err)
	}
	return result, nil
}

// CounterValue reads the get_counter view of the demo counter contract and
// decodes its single felt result as an unsigned integer.
func (r *Reader) CounterValue(ctx context.Context, contract string) (uint64, error) {
	result, err := r.Call(ctx, contract, "get_counter", nil)
	if err != nil {
		return 0, err
	}
	if len(result) == 0 {
		return 0, fmt.Errorf("get_counter: empty result")
	}
	return parseHexUint(result[0])
}

func parseHexUint(s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse felt %q: %w", s, err)
	}
	return v, nil
}
