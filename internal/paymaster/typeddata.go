package paymaster

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"

	"invisiblewallet/internal/starkx"
)

// MessageHash computes the signable hash of the typed payload for the given
// account address, per the rev-0 typed-data scheme:
//
//	pedersen("StarkNet Message", structHash(domain), account, structHash(primary))
//
// The hash is deterministic over the parsed structure, so re-hashing after a
// JSON round-trip yields the same value.
func (td *TypedData) MessageHash(accountAddress string) (*fp.Element, error) {
	prefix, err := starkx.ShortStringToElement("StarkNet Message")
	if err != nil {
		return nil, err
	}
	domainHash, err := td.structHash("StarkNetDomain", td.Domain)
	if err != nil {
		return nil, fmt.Errorf("domain: %w", err)
	}
	account, err := starkx.HexToElement(accountAddress)
	if err != nil {
		return nil, fmt.Errorf("account address: %w", err)
	}
	msgHash, err := td.structHash(td.PrimaryType, td.Message)
	if err != nil {
		return nil, fmt.Errorf("message: %w", err)
	}

	h := starkx.PedersenArray(prefix, domainHash, account, msgHash)
	return &h, nil
}

// encodeType renders a struct definition as "Name(f1:t1,f2:t2)" followed by
// the definitions of referenced struct types in alphabetical order.
func (td *TypedData) encodeType(name string) (string, error) {
	deps := map[string]bool{}
	if err := td.collectDeps(name, deps); err != nil {
		return "", err
	}
	delete(deps, name)

	ordered := make([]string, 0, len(deps))
	for d := range deps {
		ordered = append(ordered, d)
	}
	sort.Strings(ordered)

	var b strings.Builder
	for _, t := range append([]string{name}, ordered...) {
		b.WriteString(t)
		b.WriteByte('(')
		for i, p := range td.Types[t] {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(p.Name)
			b.WriteByte(':')
			b.WriteString(p.Type)
		}
		b.WriteByte(')')
	}
	return b.String(), nil
}

func (td *TypedData) collectDeps(name string, seen map[string]bool) error {
	if seen[name] {
		return nil
	}
	params, ok := td.Types[name]
	if !ok {
		return fmt.Errorf("unknown typed-data type %q", name)
	}
	seen[name] = true
	for _, p := range params {
		base := strings.TrimSuffix(p.Type, "*")
		if _, isStruct := td.Types[base]; isStruct {
			if err := td.collectDeps(base, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

func (td *TypedData) typeHash(name string) (*fp.Element, error) {
	enc, err := td.encodeType(name)
	if err != nil {
		return nil, err
	}
	return starkx.Selector(enc), nil
}

func (td *TypedData) structHash(name string, data map[string]any) (*fp.Element, error) {
	th, err := td.typeHash(name)
	if err != nil {
		return nil, err
	}

	elems := []*fp.Element{th}
	for _, p := range td.Types[name] {
		v, ok := data[p.Name]
		if !ok {
			return nil, fmt.Errorf("type %s: missing field %q", name, p.Name)
		}
		e, err := td.encodeValue(p.Type, v)
		if err != nil {
			return nil, fmt.Errorf("type %s, field %q: %w", name, p.Name, err)
		}
		elems = append(elems, e)
	}

	h := starkx.PedersenArray(elems...)
	return &h, nil
}

func (td *TypedData) encodeValue(fieldType string, v any) (*fp.Element, error) {
	if strings.HasSuffix(fieldType, "*") {
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("expected array for type %s", fieldType)
		}
		base := strings.TrimSuffix(fieldType, "*")
		elems := make([]*fp.Element, 0, len(items))
		for _, item := range items {
			e, err := td.encodeValue(base, item)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		h := starkx.PedersenArray(elems...)
		return &h, nil
	}

	if _, isStruct := td.Types[fieldType]; isStruct {
		nested, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object for type %s", fieldType)
		}
		return td.structHash(fieldType, nested)
	}

	return feltFromAny(v)
}

// feltFromAny converts a JSON scalar to a field element: 0x-hex and decimal
// strings parse as numbers, any other string uses the short-string encoding,
// numbers and bools convert directly.
func feltFromAny(v any) (*fp.Element, error) {
	switch x := v.(type) {
	case string:
		if strings.HasPrefix(x, "0x") || strings.HasPrefix(x, "0X") || isDecimal(x) {
			return starkx.HexToElement(x)
		}
		return starkx.ShortStringToElement(x)
	case float64:
		var e fp.Element
		e.SetBigInt(new(big.Int).SetInt64(int64(x)))
		return &e, nil
	case bool:
		var e fp.Element
		if x {
			e.SetOne()
		}
		return &e, nil
	}
	return nil, fmt.Errorf("unsupported typed-data value %T", v)
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
