package starkx

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	pedersenhash "github.com/consensys/gnark-crypto/ecc/stark-curve/pedersen-hash"
)

var (
	// contractAddressPrefix is the felt encoding of
	// "STARKNET_CONTRACT_ADDRESS".
	contractAddressPrefix = mustShortString("STARKNET_CONTRACT_ADDRESS")

	// addrBound caps derived contract addresses at 2^251 - 256.
	addrBound = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 251), big.NewInt(256))
)

func mustShortString(s string) fp.Element {
	e, err := ShortStringToElement(s)
	if err != nil {
		panic(err)
	}
	return *e
}

// Pedersen hashes a pair of field elements.
func Pedersen(a, b *fp.Element) fp.Element {
	return pedersenhash.Pedersen(a, b)
}

// PedersenArray hashes a sequence of field elements with the chain's
// length-terminated pedersen chain.
func PedersenArray(elems ...*fp.Element) fp.Element {
	return pedersenhash.PedersenArray(elems...)
}

// ComputeContractAddress derives the deterministic contract address for an
// account of the given class deployed by the zero address with the given
// salt and constructor calldata. It is a pure function: identical inputs
// always produce the identical address.
func ComputeContractAddress(classHash, salt *fp.Element, constructorCalldata []*fp.Element) *fp.Element {
	calldataHash := pedersenhash.PedersenArray(constructorCalldata...)

	var deployer fp.Element
	raw := pedersenhash.PedersenArray(&contractAddressPrefix, &deployer, salt, classHash, &calldataHash)

	var v big.Int
	raw.BigInt(&v)
	v.Mod(&v, addrBound)

	var out fp.Element
	out.SetBigInt(&v)
	return &out
}
