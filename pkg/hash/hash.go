// Package hash implements the 64-byte record identity used across the chain.
//
// A Hash is the BLAKE2b-512 digest (libsodium "generichash" with a 64-byte
// output) of a record's canonical pre-image. The pre-image is produced by the
// recursive Writer in hasher.go.
//
// Byte order:
//   - Internally the digest is kept exactly as the hash function emits it.
//   - The external string form is "0x" followed by the hex of the reversed
//     bytes, so the last digest byte is printed first.
//
// Golden vectors (reversed hex):
//   - Sum("abc") = 0x239900d4…3fa580ba
//   - SumMulti(Sum("foo"), Sum("bar")) = 0xe0343d06…2d171a74
package hash

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	blake2b "github.com/minio/blake2b-simd"
)

// Width is the number of bytes in every Hash.
const Width = 64

// Hash is a fixed-width digest. It is a value type; copies never alias.
type Hash [Width]byte

// Empty is the all-zero hash, the identity of an absent record.
var Empty Hash

// Endian selects the byte order of a binary Hash representation.
type Endian int

const (
	// BigEndian is the order used for storage and transmission; it equals
	// the internal order.
	BigEndian Endian = iota
	// LittleEndian is the reversed order, matching the printed hex.
	LittleEndian
)

// FormatError reports a malformed hash representation.
type FormatError struct {
	Message string
	Cause   error
}

func (e *FormatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("hash format error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("hash format error: %s", e.Message)
}

func (e *FormatError) Unwrap() error {
	return e.Cause
}

// FromString parses the external hex form, with or without the 0x prefix.
func FromString(s string) (Hash, error) {
	var h Hash

	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != Width*2 {
		return h, &FormatError{
			Message: fmt.Sprintf("expected %d hex characters, got %d", Width*2, len(s)),
		}
	}

	decoded, err := hex.DecodeString(s)
	if err != nil {
		return h, &FormatError{Message: "invalid hex", Cause: err}
	}

	for i := 0; i < Width; i++ {
		h[i] = decoded[Width-1-i]
	}
	return h, nil
}

// MustFromString is like FromString but panics on malformed input.
// Intended for constants and tests.
func MustFromString(s string) Hash {
	h, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return h
}

// FromBinary copies b into a Hash. LittleEndian input is reversed.
func FromBinary(b []byte, endian Endian) (Hash, error) {
	var h Hash
	if len(b) != Width {
		return h, &FormatError{
			Message: fmt.Sprintf("expected %d bytes, got %d", Width, len(b)),
		}
	}

	copy(h[:], b)
	if endian == LittleEndian {
		reverse(h[:])
	}
	return h, nil
}

// String returns "0x" followed by the hex of the reversed bytes.
func (h Hash) String() string {
	reversed := h
	reverse(reversed[:])
	return "0x" + hex.EncodeToString(reversed[:])
}

// Binary returns a copy of the hash bytes in the requested order.
func (h Hash) Binary(endian Endian) []byte {
	out := make([]byte, Width)
	copy(out, h[:])
	if endian == LittleEndian {
		reverse(out)
	}
	return out
}

// Bytes returns a copy of the hash in internal order.
func (h Hash) Bytes() []byte {
	return h.Binary(BigEndian)
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	return h == Empty
}

// ComputeHash contributes the raw 64 bytes, without a length prefix.
func (h Hash) ComputeHash(w *Writer) {
	w.WriteRaw(h[:])
}

// MarshalText implements encoding.TextMarshaler using the external form.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := FromString(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Sum returns the 64-byte digest of source.
func Sum(source []byte) Hash {
	return Hash(blake2b.Sum512(source))
}

// SumMulti returns the digest of source1 || source2.
func SumMulti(source1, source2 []byte) Hash {
	merged := make([]byte, 0, len(source1)+len(source2))
	merged = append(merged, source1...)
	merged = append(merged, source2...)
	return Sum(merged)
}

// MakeUTXOKey derives the key of output `index` of the transaction txHash:
// Sum(txHash || uint64_le(index)).
//
// This is how inputs reference outputs network-wide; it must stay
// bit-identical to other nodes.
func MakeUTXOKey(txHash Hash, index uint64) Hash {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], index)
	return SumMulti(txHash[:], buf[:])
}

func reverse(buf []byte) {
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
}
