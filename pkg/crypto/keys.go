// Package crypto implements the key material used to sign transactions.
//
// Keys live on secp256k1 and signatures are BIP-340 Schnorr signatures.
// The 64-byte transaction hash is reduced to the 32-byte Schnorr message
// with a tagged hash, so every signature is bound to one canonical hash.
//
// Key formats:
//   - Secret keys: raw 32-byte scalar, or WIF for display/import
//   - Public keys: 32-byte x-only form, displayed as a bech32m "boa1…" address
//   - Signatures: 64 bytes (R.x || s)
package crypto

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/suffix-labs/boa-sdk-go/pkg/hash"
)

// Sizes of the key material.
const (
	SecretKeyWidth = 32
	PublicKeyWidth = 32
	SignatureWidth = 64
)

// challengeTag domain-separates transaction signatures from other uses
// of the same key.
var challengeTag = []byte("BOA/TxChallenge")

// ErrInvalidKey is returned when key bytes cannot be used.
var ErrInvalidKey = errors.New("invalid key")

// SecretKey wraps a secp256k1 private scalar.
type SecretKey struct {
	key *secp256k1.PrivateKey
}

// PublicKey is the x-only public key; it doubles as the address.
type PublicKey [PublicKeyWidth]byte

// Signature is a BIP-340 Schnorr signature.
type Signature [SignatureWidth]byte

// KeyPair bundles a secret key with its address.
type KeyPair struct {
	Address PublicKey
	Secret  SecretKey
}

// GenerateKeyPair creates a key pair from a fresh random scalar.
func GenerateKeyPair() (KeyPair, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return KeyPair{}, fmt.Errorf("failed to generate key: %w", err)
	}
	return NewKeyPair(SecretKey{key: key}), nil
}

// NewKeyPair derives the address of secret and returns both.
func NewKeyPair(secret SecretKey) KeyPair {
	return KeyPair{Address: secret.PublicKey(), Secret: secret}
}

// SecretKeyFromBytes creates a secret key from a raw 32-byte scalar.
func SecretKeyFromBytes(keyBytes []byte) (SecretKey, error) {
	if len(keyBytes) != SecretKeyWidth {
		return SecretKey{}, fmt.Errorf("%w: secret key must be %d bytes, got %d",
			ErrInvalidKey, SecretKeyWidth, len(keyBytes))
	}

	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(keyBytes); overflow || scalar.IsZero() {
		return SecretKey{}, fmt.Errorf("%w: scalar out of range", ErrInvalidKey)
	}

	return SecretKey{key: secp256k1.NewPrivateKey(&scalar)}, nil
}

// IsValid reports whether s holds a key.
func (s SecretKey) IsValid() bool {
	return s.key != nil
}

// Bytes returns the raw 32-byte scalar.
func (s SecretKey) Bytes() []byte {
	if s.key == nil {
		return nil
	}
	return s.key.Serialize()
}

// PublicKey derives the x-only public key.
func (s SecretKey) PublicKey() PublicKey {
	var pk PublicKey
	if s.key == nil {
		return pk
	}
	copy(pk[:], schnorr.SerializePubKey(s.key.PubKey()))
	return pk
}

// Sign produces a Schnorr signature over the challenge derived from h.
// Nonces are derived deterministically, so signing the same hash twice
// yields the same signature.
func (s SecretKey) Sign(h hash.Hash) (Signature, error) {
	var out Signature
	if s.key == nil {
		return out, fmt.Errorf("%w: empty secret key", ErrInvalidKey)
	}

	sig, err := schnorr.Sign(s.key, challenge(h))
	if err != nil {
		return out, fmt.Errorf("failed to sign: %w", err)
	}

	copy(out[:], sig.Serialize())
	return out, nil
}

// PublicKeyFromBytes copies a 32-byte x-only key. The bytes are not
// required to be a curve point; such keys simply never verify.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var pk PublicKey
	if len(b) != PublicKeyWidth {
		return pk, fmt.Errorf("%w: public key must be %d bytes, got %d",
			ErrInvalidKey, PublicKeyWidth, len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

// Verify checks sig against the challenge derived from h.
func (p PublicKey) Verify(sig Signature, h hash.Hash) bool {
	pub, err := schnorr.ParsePubKey(p[:])
	if err != nil {
		return false
	}

	parsed, err := schnorr.ParseSignature(sig[:])
	if err != nil {
		return false
	}

	return parsed.Verify(challenge(h), pub)
}

// Bytes returns a copy of the key bytes.
func (p PublicKey) Bytes() []byte {
	return append([]byte(nil), p[:]...)
}

// SignatureFromBytes copies a 64-byte signature.
func SignatureFromBytes(b []byte) (Signature, error) {
	var sig Signature
	if len(b) != SignatureWidth {
		return sig, fmt.Errorf("signature must be %d bytes, got %d", SignatureWidth, len(b))
	}
	copy(sig[:], b)
	return sig, nil
}

func challenge(h hash.Hash) []byte {
	return chainhash.TaggedHash(challengeTag, h[:])[:]
}
