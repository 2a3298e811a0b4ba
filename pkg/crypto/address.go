package crypto

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// Address encoding: bech32m(hrp, version || x-only key).
const (
	AddressHRP     = "boa"
	AddressVersion = 0x30
)

// String returns the bech32m address form, e.g. "boa1xr…".
func (p PublicKey) String() string {
	payload := make([]byte, 0, 1+PublicKeyWidth)
	payload = append(payload, AddressVersion)
	payload = append(payload, p[:]...)

	conv, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return ""
	}

	addr, err := bech32.EncodeM(AddressHRP, conv)
	if err != nil {
		return ""
	}
	return addr
}

// PublicKeyFromString parses a bech32m address.
func PublicKeyFromString(addr string) (PublicKey, error) {
	var pk PublicKey

	hrp, data, version, err := bech32.DecodeGeneric(addr)
	if err != nil {
		return pk, fmt.Errorf("%w: failed to decode address: %v", ErrInvalidKey, err)
	}
	if hrp != AddressHRP {
		return pk, fmt.Errorf("%w: unexpected address prefix %q", ErrInvalidKey, hrp)
	}
	if version != bech32.VersionM {
		return pk, fmt.Errorf("%w: address is not bech32m", ErrInvalidKey)
	}

	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return pk, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(payload) != 1+PublicKeyWidth {
		return pk, fmt.Errorf("%w: decoded address has %d bytes", ErrInvalidKey, len(payload))
	}
	if payload[0] != AddressVersion {
		return pk, fmt.Errorf("%w: invalid address version 0x%02x", ErrInvalidKey, payload[0])
	}

	copy(pk[:], payload[1:])
	return pk, nil
}

// MustPublicKeyFromString is like PublicKeyFromString but panics on error.
func MustPublicKeyFromString(addr string) PublicKey {
	pk, err := PublicKeyFromString(addr)
	if err != nil {
		panic(err)
	}
	return pk
}

// MarshalText implements encoding.TextMarshaler using the address form.
func (p PublicKey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PublicKey) UnmarshalText(text []byte) error {
	pk, err := PublicKeyFromString(string(text))
	if err != nil {
		return err
	}
	*p = pk
	return nil
}
