package crypto

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcutil/base58"
)

// WIF version bytes.
const (
	wifMainnet = 0x80
	wifTestnet = 0xef
)

// ParseSecretKeyWIF parses a WIF-encoded secret key.
func ParseSecretKeyWIF(wif string) (SecretKey, error) {
	decoded, err := decodeWIF(wif)
	if err != nil {
		return SecretKey{}, err
	}
	return SecretKeyFromBytes(decoded)
}

// WIF encodes the secret key in Wallet Import Format (compressed, mainnet).
func (s SecretKey) WIF() string {
	wif, err := encodeWIF(s.Bytes(), false)
	if err != nil {
		return ""
	}
	return wif
}

// decodeWIF decodes a WIF-encoded key.
// WIF format: version_byte || key (32 bytes) || [compression_flag] || checksum (4 bytes)
func decodeWIF(wif string) ([]byte, error) {
	decoded := base58.Decode(wif)
	if len(decoded) != 37 && len(decoded) != 38 {
		return nil, errors.New("invalid WIF length")
	}

	version := decoded[0]
	if version != wifMainnet && version != wifTestnet {
		return nil, fmt.Errorf("invalid WIF version byte: 0x%02x", version)
	}

	checksumOffset := len(decoded) - 4
	providedChecksum := decoded[checksumOffset:]
	payload := decoded[:checksumOffset]

	if !bytes.Equal(providedChecksum, chainhash.DoubleHashB(payload)[:4]) {
		return nil, errors.New("WIF checksum mismatch")
	}

	return payload[1:33], nil
}

func encodeWIF(secret []byte, testnet bool) (string, error) {
	if len(secret) != SecretKeyWidth {
		return "", errors.New("secret key must be 32 bytes")
	}

	version := byte(wifMainnet)
	if testnet {
		version = wifTestnet
	}

	payload := make([]byte, 0, 1+SecretKeyWidth+1+4)
	payload = append(payload, version)
	payload = append(payload, secret...)
	payload = append(payload, 0x01)

	payload = append(payload, chainhash.DoubleHashB(payload)[:4]...)

	return base58.Encode(payload), nil
}
