// Package invoke submits sponsored transactions from an already-deployed
// account. A live session inside the scope signs without any credential
// fetch; otherwise the password path pulls the encrypted master key, decrypts
// it locally, signs once, and opportunistically mints a session for next
// time.
package invoke

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invisiblewallet/internal/client/session"
	"invisiblewallet/internal/client/storage"
	"invisiblewallet/internal/common"
	"invisiblewallet/internal/keyvault"
	"invisiblewallet/internal/logging"
	"invisiblewallet/internal/paymaster"
	"invisiblewallet/internal/starkx"
	"invisiblewallet/internal/wallet"
)

// PaymasterAPI is the slice of the sponsorship client the engine needs.
type PaymasterAPI interface {
	BuildTypedData(ctx context.Context, userAddress string, calls []paymaster.Call, accountClassHash string) (*paymaster.TypedData, error)
	Execute(ctx context.Context, userAddress, typedDataJSON string, signature []string, deployment *paymaster.DeploymentData) (string, error)
}

// CredentialAPI is the slice of the credential-store client the engine needs.
type CredentialAPI interface {
	GetPrivateKey(ctx context.Context, token string, kind wallet.Kind) (string, error)
}

// PasswordFunc supplies the wallet password on demand. It is called at most
// once per invocation, and only when no usable session exists.
type PasswordFunc func() (string, error)

// Params configures an Engine.
type Params struct {
	Paymaster   PaymasterAPI
	Credentials CredentialAPI
	Store       storage.Store
	Sessions    *session.Manager
	Log         logging.Logger

	CounterAddress string

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Engine submits sponsored invocations.
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

// Result reports a submitted invocation.
type Result struct {
	TransactionHash string
	UsedSession     bool
}

// IncreaseCounter submits the counter contract's increase_counter call from
// the user's deployed account of the given kind. password is consulted only
// on the fallback path.
func (e *Engine) IncreaseCounter(ctx context.Context, token string, kind wallet.Kind, password PasswordFunc) (*Result, error) {
	const method = "increase_counter"

	u, err := e.p.Store.GetUser(ctx)
	if err != nil {
		return nil, err
	}
	address := ""
	if u != nil {
		address = u.AddressFor(kind)
	}
	if address == "" {
		return nil, fmt.Errorf("%w: no deployed %s account", common.ErrCredentialNotFound, kind)
	}

	calls := []paymaster.Call{{
		ContractAddress: e.p.CounterAddress,
		Entrypoint:      method,
		Calldata:        []string{},
	}}

	td, err := e.p.Paymaster.BuildTypedData(ctx, address, calls, "")
	if err != nil {
		return nil, err
	}
	h, err := td.MessageHash(address)
	if err != nil {
		return nil, err
	}
	tdJSON, err := td.JSON()
	if err != nil {
		return nil, err
	}

	signer, err := e.p.Sessions.GetSession(ctx, kind, e.p.CounterAddress, method, e.p.Now())
	if err != nil {
		if !errors.Is(err, common.ErrSessionInvalid) {
			return nil, err
		}
		// A session whose key material no longer reconstructs is as good as
		// no session: drop it and take the password path.
		if clearErr := e.p.Sessions.Clear(ctx); clearErr != nil {
			return nil, clearErr
		}
		e.p.Log.Warn(ctx, "unusable session cleared", "wallet", string(kind), "error", err)
		signer = nil
	}
	if signer != nil {
		sig, err := signer.Sign(h)
		if err != nil {
			return nil, err
		}
		txHash, err := e.p.Paymaster.Execute(ctx, address, tdJSON, sig, nil)
		if err != nil {
			return nil, err
		}
		e.p.Log.Info(ctx, "invocation submitted", "wallet", string(kind), "tx", txHash, "session", true)
		return &Result{TransactionHash: txHash, UsedSession: true}, nil
	}

	pw, err := password()
	if err != nil {
		return nil, err
	}

	ciphertext, err := e.p.Credentials.GetPrivateKey(ctx, token, kind)
	if err != nil {
		return nil, err
	}
	priv, err := keyvault.Decrypt(ciphertext, pw)
	if err != nil {
		return nil, err
	}
	if priv == "" {
		return nil, common.ErrAuthenticationFailed
	}
	kp, err := starkx.KeypairFromHex(priv)
	if err != nil {
		return nil, fmt.Errorf("stored key: %w", err)
	}

	r, s, err := kp.SignHash(h)
	if err != nil {
		return nil, err
	}
	txHash, err := e.p.Paymaster.Execute(ctx, address, tdJSON, []string{r, s}, nil)
	if err != nil {
		return nil, err
	}
	e.p.Log.Info(ctx, "invocation submitted", "wallet", string(kind), "tx", txHash, "session", false)

	// A successful password-path invocation is the moment to mint a session,
	// so the next call skips the credential fetch. Failure here never fails
	// the invocation that already went through.
	if kind.SessionCapable() {
		if _, err := e.p.Sessions.Create(ctx, kp, kind, address, e.p.CounterAddress, method, e.p.Now()); err != nil {
			e.p.Log.Warn(ctx, "session creation failed", "wallet", string(kind), "error", err)
		}
	}

	return &Result{TransactionHash: txHash, UsedSession: false}, nil
}
