// Package session manages scope-limited delegated signing keys for accounts
// that support them. A session is a fresh ephemeral keypair whose public key,
// expiry, and allowed-method scope are bound together in a typed-data grant
// signed once by the master key; afterwards transactions inside the scope are
// signed with the session key alone, without touching the encrypted master
// key.
package session

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"

	"invisiblewallet/internal/client/models"
	"invisiblewallet/internal/client/storage"
	"invisiblewallet/internal/common"
	"invisiblewallet/internal/logging"
	"invisiblewallet/internal/starkx"
	"invisiblewallet/internal/wallet"
)

// TTL is the lifetime of a session grant.
const TTL = 24 * time.Hour

// Manager creates and resolves sessions against the local store.
type Manager struct {
	store   storage.Store
	chainID string
	log     logging.Logger
}

// NewManager builds a Manager. chainID is the canonical hex felt of the
// target chain id.
func NewManager(store storage.Store, chainID string, log logging.Logger) *Manager {
	return &Manager{store: store, chainID: chainID, log: log}
}

// IsExpired reports whether a session is no longer usable at now. The
// boundary is inclusive: a session exactly at its expiry instant is expired.
func IsExpired(s *models.Session, now time.Time) bool {
	return now.UnixMilli() >= s.Expiry
}

// policyLeaf hashes one {contract, selector} scope entry.
func policyLeaf(m models.AllowedMethod) (*fp.Element, error) {
	typeHash := starkx.Selector("Policy(contractAddress:felt,selector:felt)")
	contract, err := starkx.HexToElement(m.ContractAddress)
	if err != nil {
		return nil, fmt.Errorf("policy contract: %w", err)
	}
	selector, err := starkx.HexToElement(m.Selector)
	if err != nil {
		return nil, fmt.Errorf("policy selector: %w", err)
	}
	h := starkx.PedersenArray(typeHash, contract, selector)
	return &h, nil
}

// PolicyRoot computes the merkle root over the scope's policy leaves. A
// single-entry scope collapses to its leaf hash.
func PolicyRoot(methods []models.AllowedMethod) (*fp.Element, error) {
	if len(methods) == 0 {
		return nil, fmt.Errorf("empty session scope")
	}
	level := make([]*fp.Element, 0, len(methods))
	for _, m := range methods {
		leaf, err := policyLeaf(m)
		if err != nil {
			return nil, err
		}
		level = append(level, leaf)
	}
	for len(level) > 1 {
		next := make([]*fp.Element, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			h := starkx.Pedersen(level[i], level[i+1])
			next = append(next, &h)
		}
		level = next
	}
	return level[0], nil
}

// GrantHash computes the typed-data hash the master key signs to authorize a
// session: pedersen("StarkNet Message", domainHash, account, sessionHash)
// over Session(key:felt,expires:felt,root:merkletree).
func GrantHash(chainID, accountAddress, sessionPublic string, expiryMillis int64, methods []models.AllowedMethod) (*fp.Element, error) {
	prefix, err := starkx.ShortStringToElement("StarkNet Message")
	if err != nil {
		return nil, err
	}

	domainType := starkx.Selector("StarkNetDomain(name:felt,version:felt,chainId:felt)")
	name, err := starkx.ShortStringToElement("Session")
	if err != nil {
		return nil, err
	}
	version, err := starkx.ShortStringToElement("1")
	if err != nil {
		return nil, err
	}
	chain, err := starkx.HexToElement(chainID)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	domainHash := starkx.PedersenArray(domainType, name, version, chain)

	account, err := starkx.HexToElement(accountAddress)
	if err != nil {
		return nil, fmt.Errorf("account address: %w", err)
	}

	sessionType := starkx.Selector("Session(key:felt,expires:felt,root:merkletree)")
	key, err := starkx.HexToElement(sessionPublic)
	if err != nil {
		return nil, fmt.Errorf("session key: %w", err)
	}
	var expires fp.Element
	expires.SetBigInt(big.NewInt(expiryMillis))
	root, err := PolicyRoot(methods)
	if err != nil {
		return nil, err
	}
	sessionHash := starkx.PedersenArray(sessionType, key, &expires, root)

	h := starkx.PedersenArray(prefix, &domainHash, account, &sessionHash)
	return &h, nil
}

// Create mints a session for an account and persists it in the local store,
// replacing any previous session. The master keypair signs the grant; it is
// not retained. The scope is the single {contract, method} pair.
func (m *Manager) Create(ctx context.Context, master *starkx.Keypair, kind wallet.Kind, accountAddress, contract, method string, now time.Time) (*models.Session, error) {
	if !kind.SessionCapable() {
		return nil, fmt.Errorf("%w: %s accounts do not support sessions", common.ErrSessionInvalid, kind)
	}

	kp, err := starkx.GenerateKeypair()
	if err != nil {
		return nil, fmt.Errorf("session keypair: %w", err)
	}

	methods := []models.AllowedMethod{{
		ContractAddress: contract,
		Selector:        starkx.SelectorHex(method),
	}}
	expiry := now.Add(TTL).UnixMilli()

	h, err := GrantHash(m.chainID, accountAddress, kp.PublicKeyHex(), expiry, methods)
	if err != nil {
		return nil, fmt.Errorf("session grant: %w", err)
	}
	grantR, grantS, err := master.SignHash(h)
	if err != nil {
		return nil, fmt.Errorf("session grant: %w", err)
	}

	sess := &models.Session{
		Expiry:         expiry,
		Wallet:         kind,
		SessionKey:     kp.PrivateKeyHex(),
		SessionPublic:  kp.PublicKeyHex(),
		GrantR:         grantR,
		GrantS:         grantS,
		AllowedMethods: methods,
	}

	if _, err := m.store.MergeUser(ctx, func(u *models.UserRecord) {
		u.Session = sess
	}); err != nil {
		return nil, err
	}

	m.log.Info(ctx, "session created", "wallet", string(kind), "expires", sess.ExpiresAt().Format(time.RFC3339))
	return sess, nil
}

// GetSession resolves a usable signer for {contract, method} at now, or nil
// when no session applies. An expired session is removed from the store as a
// side effect; a live session outside the requested scope is left alone.
func (m *Manager) GetSession(ctx context.Context, kind wallet.Kind, contract, method string, now time.Time) (*Signer, error) {
	u, err := m.store.GetUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil || u.Session == nil || u.Session.Wallet != kind {
		return nil, nil
	}

	if IsExpired(u.Session, now) {
		if err := m.store.ClearSession(ctx); err != nil {
			return nil, err
		}
		m.log.Info(ctx, "expired session cleared", "wallet", string(kind))
		return nil, nil
	}

	if !u.Session.Allows(contract, starkx.SelectorHex(method)) {
		return nil, nil
	}

	kp, err := starkx.KeypairFromHex(u.Session.SessionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSessionInvalid, err)
	}
	return &Signer{sess: u.Session, kp: kp}, nil
}

// Clear drops any stored session. Clearing an absent session is a no-op.
func (m *Manager) Clear(ctx context.Context) error {
	return m.store.ClearSession(ctx)
}

// Signer signs transaction hashes with a live session key. The produced
// signature carries the session token so the account contract can verify the
// grant chain without the master key.
type Signer struct {
	sess *models.Session
	kp   *starkx.Keypair
}

// Session returns the backing session record.
func (s *Signer) Session() *models.Session { return s.sess }

// Sign signs a transaction hash with the session key and assembles the full
// session signature: [r, s, sessionPublic, expires, root, grantR, grantS].
func (s *Signer) Sign(h *fp.Element) ([]string, error) {
	r, sv, err := s.kp.SignHash(h)
	if err != nil {
		return nil, fmt.Errorf("session sign: %w", err)
	}
	root, err := PolicyRoot(s.sess.AllowedMethods)
	if err != nil {
		return nil, err
	}
	return []string{
		r,
		sv,
		s.sess.SessionPublic,
		starkx.BigToHex(big.NewInt(s.sess.Expiry)),
		starkx.ElementToHex(root),
		s.sess.GrantR,
		s.sess.GrantS,
	}, nil
}
