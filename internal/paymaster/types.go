// Package paymaster implements the client for the fee-sponsorship service's
// two-phase protocol (build-typed-data, execute) plus the rewards query and
// account enrollment.
package paymaster

import "encoding/json"

// Call is one contract invocation inside a sponsored transaction.
type Call struct {
	ContractAddress string   `json:"contractAddress"`
	Entrypoint      string   `json:"entrypoint"`
	Calldata        []string `json:"calldata"`
}

// DeploymentData describes a counterfactual account deployment bundled with
// an execute request. SigData carries the wallet-kind-specific extra
// signature elements when applicable.
type DeploymentData struct {
	ClassHash string   `json:"class_hash"`
	Salt      string   `json:"salt"`
	Unique    string   `json:"unique"`
	Calldata  []string `json:"calldata"`
	SigData   []string `json:"sigdata,omitempty"`
}

// TypeParam is one field of a typed-data struct definition.
type TypeParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TypedData is the structured payload returned by build-typed-data. It is
// opaque to callers: it travels back to the execute phase byte-identical to
// how it arrived, the only permitted local operation being MessageHash.
type TypedData struct {
	Types       map[string][]TypeParam `json:"types"`
	PrimaryType string                 `json:"primaryType"`
	Domain      map[string]any         `json:"domain"`
	Message     map[string]any         `json:"message"`

	raw json.RawMessage
}

func (td *TypedData) UnmarshalJSON(data []byte) error {
	type alias TypedData
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*td = TypedData(a)
	td.raw = append(json.RawMessage(nil), data...)
	return nil
}

// JSON returns the payload exactly as it came off the wire. For payloads
// constructed locally (session grants) it falls back to marshalling.
func (td *TypedData) JSON() (string, error) {
	if td.raw != nil {
		return string(td.raw), nil
	}
	b, err := json.Marshal(struct {
		Types       map[string][]TypeParam `json:"types"`
		PrimaryType string                 `json:"primaryType"`
		Domain      map[string]any         `json:"domain"`
		Message     map[string]any         `json:"message"`
	}{td.Types, td.PrimaryType, td.Domain, td.Message})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Reward is one eligibility entry from the rewards query.
type Reward struct {
	Date        string `json:"date,omitempty"`
	Campaign    string `json:"campaign,omitempty"`
	Protocol    string `json:"protocol,omitempty"`
	FreeTx      int    `json:"freeTx,omitempty"`
	RemainingTx int    `json:"remainingTx,omitempty"`
}

// SumRemaining adds up the remaining sponsored-transaction counts. A missing
// field counts as zero; an empty or absent list sums to zero.
func SumRemaining(rewards []Reward) int {
	total := 0
	for _, r := range rewards {
		total += r.RemainingTx
	}
	return total
}

// WhitelistedCall is one {contract, entrypoint} pair of an enrollment.
type WhitelistedCall struct {
	ContractAddress string `json:"contractAddress"`
	Entrypoint      string `json:"entrypoint"`
}

// EnrollmentRequest registers an address for fee sponsorship.
type EnrollmentRequest struct {
	Address          string            `json:"address"`
	Campaign         string            `json:"campaign"`
	FreeTx           int               `json:"freeTx"`
	Protocol         string            `json:"protocol"`
	WhitelistedCalls []WhitelistedCall `json:"whitelistedCalls"`
}
