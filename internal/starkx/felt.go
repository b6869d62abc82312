// Package starkx wraps the signing-curve primitives the wallet is built on:
// canonical field-element encoding, pedersen hashing, deterministic contract
// address derivation, and ECDSA keypairs over the stark curve.
//
// The canonical encoding for felts and key material at every storage and
// wire boundary is a 0x-prefixed hex string without leading zeros. Decimal
// strings are accepted on input for convenience.
package starkx

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"golang.org/x/crypto/sha3"
)

// ParseBig parses a 0x-prefixed hex or plain decimal string into a
// non-negative big integer.
func ParseBig(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty field element")
	}
	base := 10
	digits := s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		digits = s[2:]
	}
	v, ok := new(big.Int).SetString(digits, base)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid field element %q", s)
	}
	return v, nil
}

// HexToElement parses s into a field element, reducing modulo the field.
func HexToElement(s string) (*fp.Element, error) {
	v, err := ParseBig(s)
	if err != nil {
		return nil, err
	}
	var e fp.Element
	e.SetBigInt(v)
	return &e, nil
}

// ElementToHex renders e in the canonical encoding.
func ElementToHex(e *fp.Element) string {
	var v big.Int
	e.BigInt(&v)
	return "0x" + v.Text(16)
}

// BigToHex renders v in the canonical encoding.
func BigToHex(v *big.Int) string {
	return "0x" + v.Text(16)
}

// ShortStringToElement encodes an ASCII string of at most 31 characters as a
// felt, per the chain's short-string convention.
func ShortStringToElement(s string) (*fp.Element, error) {
	if len(s) > 31 {
		return nil, fmt.Errorf("short string %q longer than 31 characters", s)
	}
	var e fp.Element
	e.SetBigInt(new(big.Int).SetBytes([]byte(s)))
	return &e, nil
}

// Selector returns the entrypoint selector for a method name: the keccak256
// digest of the name truncated to 250 bits.
func Selector(name string) *fp.Element {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(name))
	d := h.Sum(nil)
	d[0] &= 0x03
	var e fp.Element
	e.SetBigInt(new(big.Int).SetBytes(d))
	return &e
}

// SelectorHex is Selector rendered in the canonical encoding.
func SelectorHex(name string) string {
	return ElementToHex(Selector(name))
}
