// Package wallet defines the closed set of supported smart-account kinds and
// the per-kind wire details that differ between them: constructor calldata
// shape and deployment signature layout.
package wallet

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"

	"invisiblewallet/internal/starkx"
)

// Kind tags one of the supported account contract families.
type Kind string

const (
	KindArgent  Kind = "argent"
	KindBraavos Kind = "braavos"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindArgent, KindBraavos}

// ParseKind validates a kind tag coming from config, storage, or the wire.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindArgent:
		return KindArgent, nil
	case KindBraavos:
		return KindBraavos, nil
	}
	return "", fmt.Errorf("unknown wallet kind %q", s)
}

// SessionCapable reports whether the kind's account contract supports
// scope-limited session keys.
func (k Kind) SessionCapable() bool {
	return k == KindArgent
}

// ConstructorCalldata returns the account constructor calldata for an owner
// public key. The layouts are fixed by the respective account contracts:
// argent takes {owner: Signer::Starknet(pubkey), guardian: Option::None},
// braavos takes the bare stark key.
func (k Kind) ConstructorCalldata(pubKeyHex string) ([]string, error) {
	switch k {
	case KindArgent:
		return []string{"0x0", pubKeyHex, "0x1"}, nil
	case KindBraavos:
		return []string{pubKeyHex}, nil
	}
	return nil, fmt.Errorf("unknown wallet kind %q", k)
}

// AuxSigner signs an already-hashed message; *starkx.Keypair satisfies it.
type AuxSigner interface {
	SignHash(h *fp.Element) (r, s string, err error)
}

// auxSlotCount is the number of reserved zero-filled slots in the braavos
// deployment signature. Fixed, versioned protocol detail of that account
// contract's verification layout.
const auxSlotCount = 7

// DeploySignature assembles the deployment signature array for a kind. This
// is the single place the braavos auxiliary signature is appended: after the
// primary (r, s) pair come the class hash, the reserved slots, the chain id,
// and a second signature over pedersen(classHash, slots..., chainID).
func DeploySignature(kind Kind, r, s, classHash, chainID string, signer AuxSigner) ([]string, error) {
	switch kind {
	case KindArgent:
		return []string{r, s}, nil

	case KindBraavos:
		class, err := starkx.HexToElement(classHash)
		if err != nil {
			return nil, fmt.Errorf("class hash: %w", err)
		}
		chain, err := starkx.HexToElement(chainID)
		if err != nil {
			return nil, fmt.Errorf("chain id: %w", err)
		}

		elems := make([]*fp.Element, 0, auxSlotCount+2)
		elems = append(elems, class)
		for i := 0; i < auxSlotCount; i++ {
			elems = append(elems, new(fp.Element))
		}
		elems = append(elems, chain)

		h := starkx.PedersenArray(elems...)
		auxR, auxS, err := signer.SignHash(&h)
		if err != nil {
			return nil, fmt.Errorf("auxiliary signature: %w", err)
		}

		sig := make([]string, 0, auxSlotCount+5)
		sig = append(sig, r, s, starkx.ElementToHex(class))
		for i := 0; i < auxSlotCount; i++ {
			sig = append(sig, "0x0")
		}
		sig = append(sig, starkx.ElementToHex(chain), auxR, auxS)
		return sig, nil
	}
	return nil, fmt.Errorf("unknown wallet kind %q", kind)
}
