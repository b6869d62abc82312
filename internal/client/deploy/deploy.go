// Package deploy drives counterfactual account deployment: generate a master
// keypair, derive the deterministic address, obtain the sponsored typed
// payload, sign it in the wallet kind's layout, execute through the
// sponsorship service, and only then persist the credential. The run is a
// strict state progression so a failure at any step leaves nothing persisted
// on either side.
package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"

	"invisiblewallet/internal/client/api"
	"invisiblewallet/internal/client/models"
	"invisiblewallet/internal/client/session"
	"invisiblewallet/internal/client/storage"
	"invisiblewallet/internal/keyvault"
	"invisiblewallet/internal/logging"
	"invisiblewallet/internal/paymaster"
	"invisiblewallet/internal/starkx"
	"invisiblewallet/internal/wallet"
)

// State is how far a deployment run has progressed. On failure the returned
// Result carries the last state reached, so callers can tell a local signing
// problem from a failed execution.
type State int

const (
	StateInit State = iota
	StateKeyGenerated
	StateAddressDerived
	StateTypedDataBuilt
	StateSigned
	StateExecuted
	StatePersisted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateKeyGenerated:
		return "key_generated"
	case StateAddressDerived:
		return "address_derived"
	case StateTypedDataBuilt:
		return "typed_data_built"
	case StateSigned:
		return "signed"
	case StateExecuted:
		return "executed"
	case StatePersisted:
		return "persisted"
	}
	return "unknown"
}

// PaymasterAPI is the slice of the sponsorship client the engine needs.
type PaymasterAPI interface {
	BuildTypedData(ctx context.Context, userAddress string, calls []paymaster.Call, accountClassHash string) (*paymaster.TypedData, error)
	Execute(ctx context.Context, userAddress, typedDataJSON string, signature []string, deployment *paymaster.DeploymentData) (string, error)
}

// CredentialAPI is the slice of the credential-store client the engine needs.
type CredentialAPI interface {
	UpdateProfile(ctx context.Context, token string, req api.UpdateProfileRequest) error
	Sponsor(ctx context.Context, token, userAddress string) error
}

// Params configures an Engine.
type Params struct {
	Paymaster   PaymasterAPI
	Credentials CredentialAPI
	Store       storage.Store
	Sessions    *session.Manager
	Log         logging.Logger

	ChainID          string
	CounterAddress   string
	ArgentClassHash  string
	BraavosClassHash string

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Engine deploys accounts.
type Engine struct {
	p Params
}

// NewEngine builds an Engine from params.
func NewEngine(p Params) *Engine {
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Engine{p: p}
}

// Result reports the outcome of a deployment run.
type Result struct {
	State           State
	Address         string
	TransactionHash string
}

func (e *Engine) classHash(kind wallet.Kind) (string, error) {
	switch kind {
	case wallet.KindArgent:
		return e.p.ArgentClassHash, nil
	case wallet.KindBraavos:
		return e.p.BraavosClassHash, nil
	}
	return "", fmt.Errorf("unknown wallet kind %q", kind)
}

// Deploy runs the full deployment for one wallet kind. password encrypts the
// master private key before it is sent to the credential store; the plaintext
// key never leaves the process. The encrypted credential is written only
// after the deployment transaction has been accepted, so a failed run
// persists nothing.
func (e *Engine) Deploy(ctx context.Context, token, password string, kind wallet.Kind) (*Result, error) {
	res := &Result{State: StateInit}

	classHash, err := e.classHash(kind)
	if err != nil {
		return res, err
	}

	kp, err := starkx.GenerateKeypair()
	if err != nil {
		return res, fmt.Errorf("deploy %s: %w", kind, err)
	}
	res.State = StateKeyGenerated

	pubHex := kp.PublicKeyHex()
	calldata, err := kind.ConstructorCalldata(pubHex)
	if err != nil {
		return res, fmt.Errorf("deploy %s: %w", kind, err)
	}

	classElem, err := starkx.HexToElement(classHash)
	if err != nil {
		return res, fmt.Errorf("deploy %s: class hash: %w", kind, err)
	}
	calldataElems := make([]*fp.Element, 0, len(calldata))
	for _, c := range calldata {
		el, err := starkx.HexToElement(c)
		if err != nil {
			return res, fmt.Errorf("deploy %s: calldata: %w", kind, err)
		}
		calldataElems = append(calldataElems, el)
	}
	// The public key doubles as the address salt, keeping derivation a pure
	// function of the keypair.
	address := starkx.ElementToHex(starkx.ComputeContractAddress(classElem, kp.PublicKeyElement(), calldataElems))
	res.State = StateAddressDerived
	res.Address = address

	// Bootstrap invocation bundled with the deployment: a whitelisted
	// read-only call on the counter contract.
	calls := []paymaster.Call{{
		ContractAddress: e.p.CounterAddress,
		Entrypoint:      "get_counter",
		Calldata:        []string{},
	}}

	td, err := e.p.Paymaster.BuildTypedData(ctx, address, calls, classHash)
	if err != nil {
		return res, fmt.Errorf("deploy %s: %w", kind, err)
	}
	res.State = StateTypedDataBuilt

	h, err := td.MessageHash(address)
	if err != nil {
		return res, fmt.Errorf("deploy %s: %w", kind, err)
	}
	r, s, err := kp.SignHash(h)
	if err != nil {
		return res, fmt.Errorf("deploy %s: %w", kind, err)
	}
	fullSig, err := wallet.DeploySignature(kind, r, s, classHash, e.p.ChainID, kp)
	if err != nil {
		return res, fmt.Errorf("deploy %s: %w", kind, err)
	}
	res.State = StateSigned

	deployment := &paymaster.DeploymentData{
		ClassHash: classHash,
		Salt:      pubHex,
		Unique:    "0x0",
		Calldata:  calldata,
	}
	signature := fullSig
	if len(fullSig) > 2 {
		// Kinds with an extended layout split it: the plain (r, s) pair goes
		// in the signature field, the remainder travels as deployment sigdata.
		signature = fullSig[:2]
		deployment.SigData = fullSig[2:]
	}

	tdJSON, err := td.JSON()
	if err != nil {
		return res, fmt.Errorf("deploy %s: %w", kind, err)
	}
	txHash, err := e.p.Paymaster.Execute(ctx, address, tdJSON, signature, deployment)
	if err != nil {
		return res, fmt.Errorf("deploy %s: %w", kind, err)
	}
	res.State = StateExecuted
	res.TransactionHash = txHash

	ciphertext, err := keyvault.Encrypt(kp.PrivateKeyHex(), password)
	if err != nil {
		return res, fmt.Errorf("deploy %s: %w", kind, err)
	}
	if err := e.p.Credentials.UpdateProfile(ctx, token, api.UpdateProfileRequest{
		PublicKey:  address,
		PrivateKey: ciphertext,
		Account:    kind,
	}); err != nil {
		return res, fmt.Errorf("deploy %s: persist credential: %w", kind, err)
	}

	if _, err := e.p.Store.MergeUser(ctx, func(u *models.UserRecord) {
		u.SetAddress(kind, address)
	}); err != nil {
		return res, fmt.Errorf("deploy %s: %w", kind, err)
	}
	res.State = StatePersisted

	e.p.Log.Info(ctx, "account deployed", "wallet", string(kind), "address", address, "tx", txHash)

	// Best-effort extras: neither sponsorship enrollment nor session creation
	// can fail an already-persisted deployment.
	if err := e.p.Credentials.Sponsor(ctx, token, address); err != nil {
		e.p.Log.Warn(ctx, "sponsorship enrollment failed", "address", address, "error", err)
	}
	if kind.SessionCapable() && e.p.Sessions != nil {
		if _, err := e.p.Sessions.Create(ctx, kp, kind, address, e.p.CounterAddress, "increase_counter", e.p.Now()); err != nil {
			e.p.Log.Warn(ctx, "session creation failed", "address", address, "error", err)
		}
	}

	return res, nil
}
