// Package models defines the client-side data shapes persisted in the local
// store: the cached user record and the optional embedded session.
package models

import (
	"time"

	"invisiblewallet/internal/wallet"
)

// AllowedMethod is one {contract, method} pair of a session's capability
// scope.
type AllowedMethod struct {
	ContractAddress string `json:"contract_address"`
	Selector        string `json:"selector"`
}

// Session is a time-boxed, scope-limited delegated signing capability. All
// key material uses the canonical hex encoding. A session lives only in the
// local store and is never sent to the credential store.
type Session struct {
	// Expiry is absolute epoch milliseconds.
	Expiry         int64           `json:"expiry"`
	Wallet         wallet.Kind     `json:"wallet"`
	SessionKey     string          `json:"session_key"`
	SessionPublic  string          `json:"session_public"`
	GrantR         string          `json:"grant_r"`
	GrantS         string          `json:"grant_s"`
	AllowedMethods []AllowedMethod `json:"allowed_methods"`
}

// ExpiresAt converts the stored expiry to a time.Time.
func (s *Session) ExpiresAt() time.Time {
	return time.UnixMilli(s.Expiry)
}

// Allows reports whether the scope covers exactly this {contract, method}
// pair. A session carries no ability to widen its own scope.
func (s *Session) Allows(contract, selector string) bool {
	for _, m := range s.AllowedMethods {
		if m.ContractAddress == contract && m.Selector == selector {
			return true
		}
	}
	return false
}

// UserRecord is the single record the client persists per profile.
type UserRecord struct {
	Email          string   `json:"email"`
	Token          string   `json:"token"`
	ArgentAddress  string   `json:"argent_address,omitempty"`
	BraavosAddress string   `json:"braavos_address,omitempty"`
	Session        *Session `json:"session,omitempty"`
}

// AddressFor returns the deployed account address cached for a kind, or ""
// if that wallet has not been deployed.
func (u *UserRecord) AddressFor(kind wallet.Kind) string {
	switch kind {
	case wallet.KindArgent:
		return u.ArgentAddress
	case wallet.KindBraavos:
		return u.BraavosAddress
	}
	return ""
}

// SetAddress caches the deployed account address for a kind.
func (u *UserRecord) SetAddress(kind wallet.Kind, addr string) {
	switch kind {
	case wallet.KindArgent:
		u.ArgentAddress = addr
	case wallet.KindBraavos:
		u.BraavosAddress = addr
	}
}
