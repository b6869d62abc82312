package starkx

import (
	"crypto/rand"
	"fmt"
	"math/big"

	starkcurve "github.com/consensys/gnark-crypto/ecc/stark-curve"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/ecdsa"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fr"
)

// Keypair is a signing keypair on the stark curve. The private scalar never
// leaves the process unencrypted except through PrivateKeyHex, which callers
// must encrypt before persisting.
type Keypair struct {
	priv *ecdsa.PrivateKey
}

// GenerateKeypair draws a private scalar uniformly at random from the
// curve's scalar field using crypto/rand and derives its public key.
func GenerateKeypair() (*Keypair, error) {
	priv, err := ecdsa.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("keypair generation: %w", err)
	}
	return &Keypair{priv: priv}, nil
}

// KeypairFromHex rebuilds a keypair from a canonical hex-encoded private
// scalar by recomputing the public key. The rebuild is deterministic: the
// same input always yields an equivalent keypair. A lossy round-trip of the
// scalar is a correctness bug, so the input is validated against the scalar
// field bounds instead of being silently reduced.
func KeypairFromHex(privHex string) (*Keypair, error) {
	scalar, err := ParseBig(privHex)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	if scalar.Sign() <= 0 || scalar.Cmp(fr.Modulus()) >= 0 {
		return nil, fmt.Errorf("private key out of scalar field range")
	}

	var pub starkcurve.G1Affine
	pub.ScalarMultiplicationBase(scalar)

	buf := make([]byte, 0, 2*fr.Bytes)
	pubBytes := pub.Bytes()
	buf = append(buf, pubBytes[:]...)
	scalarBytes := make([]byte, fr.Bytes)
	scalar.FillBytes(scalarBytes)
	buf = append(buf, scalarBytes...)

	priv := new(ecdsa.PrivateKey)
	if _, err := priv.SetBytes(buf); err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	return &Keypair{priv: priv}, nil
}

// PrivateKeyHex returns the canonical encoding of the private scalar.
func (k *Keypair) PrivateKeyHex() string {
	b := k.priv.Bytes()
	scalar := new(big.Int).SetBytes(b[len(b)-fr.Bytes:])
	return BigToHex(scalar)
}

// PublicKeyHex returns the stark key: the x-coordinate of the public point
// in the canonical encoding.
func (k *Keypair) PublicKeyHex() string {
	x := k.priv.PublicKey.A.X
	return ElementToHex(&x)
}

// PublicKeyElement returns the stark key as a field element.
func (k *Keypair) PublicKeyElement() *fp.Element {
	x := k.priv.PublicKey.A.X
	return &x
}

// SignHash signs an already-hashed message and returns the (r, s) pair in
// the canonical encoding.
func (k *Keypair) SignHash(h *fp.Element) (r, s string, err error) {
	msg := h.Bytes()
	sig, err := k.priv.Sign(msg[:], nil)
	if err != nil {
		return "", "", fmt.Errorf("sign: %w", err)
	}
	rv := new(big.Int).SetBytes(sig[:fr.Bytes])
	sv := new(big.Int).SetBytes(sig[fr.Bytes : 2*fr.Bytes])
	return BigToHex(rv), BigToHex(sv), nil
}

// Verify checks an (r, s) pair produced by SignHash against this keypair's
// public key.
func (k *Keypair) Verify(h *fp.Element, rHex, sHex string) (bool, error) {
	rv, err := ParseBig(rHex)
	if err != nil {
		return false, err
	}
	sv, err := ParseBig(sHex)
	if err != nil {
		return false, err
	}
	sig := make([]byte, 2*fr.Bytes)
	rv.FillBytes(sig[:fr.Bytes])
	sv.FillBytes(sig[fr.Bytes:])

	msg := h.Bytes()
	return k.priv.PublicKey.Verify(sig, msg[:], nil)
}
