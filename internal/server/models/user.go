// Package models defines the server-side data shapes.
package models

import (
	"time"

	"invisiblewallet/internal/wallet"
)

// User is one credential-store account. The per-wallet PublicKey columns hold
// the deployed account address; the PrivateKey columns hold the
// client-encrypted ciphertext, never plaintext key material.
type User struct {
	ID                string
	Email             string
	PasswordHash      string
	ArgentPublicKey   string
	ArgentPrivateKey  string
	BraavosPublicKey  string
	BraavosPrivateKey string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Credential returns the stored (address, ciphertext) pair for a kind.
func (u *User) Credential(kind wallet.Kind) (publicKey, privateKey string) {
	switch kind {
	case wallet.KindArgent:
		return u.ArgentPublicKey, u.ArgentPrivateKey
	case wallet.KindBraavos:
		return u.BraavosPublicKey, u.BraavosPrivateKey
	}
	return "", ""
}

// SetCredential stores the (address, ciphertext) pair for a kind.
func (u *User) SetCredential(kind wallet.Kind, publicKey, privateKey string) {
	switch kind {
	case wallet.KindArgent:
		u.ArgentPublicKey, u.ArgentPrivateKey = publicKey, privateKey
	case wallet.KindBraavos:
		u.BraavosPublicKey, u.BraavosPrivateKey = publicKey, privateKey
	}
}
