// Package varint implements the compact unsigned integer encoding used by
// the wire format and by the canonical hash pre-image.
//
// Encoding (little-endian payload, smallest tag always chosen):
//   - 0x00..0xFC:               the value itself, 1 byte
//   - 0xFD..0xFFFF:             0xFD || uint16, 3 bytes
//   - 0x10000..0xFFFFFFFF:      0xFE || uint32, 5 bytes
//   - larger:                   0xFF || uint64, 9 bytes
//
// Decoders accept any tag; encoders never emit a larger tag than necessary.
package varint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Tag bytes introducing multi-byte payloads.
const (
	Tag16 byte = 0xFD
	Tag32 byte = 0xFE
	Tag64 byte = 0xFF

	// MaxInline is the largest value stored directly in the tag byte.
	MaxInline = 0xFC
)

// ErrTruncated is returned when the buffer ends before the encoded value.
var ErrTruncated = errors.New("varint: truncated buffer")

// Size returns the number of bytes Encode(n) produces.
func Size(n uint64) int {
	switch {
	case n <= MaxInline:
		return 1
	case n <= 0xFFFF:
		return 3
	case n <= 0xFFFFFFFF:
		return 5
	default:
		return 9
	}
}

// Encode returns the canonical encoding of n.
func Encode(n uint64) []byte {
	return Append(make([]byte, 0, Size(n)), n)
}

// Append appends the canonical encoding of n to dst.
func Append(dst []byte, n uint64) []byte {
	switch {
	case n <= MaxInline:
		return append(dst, byte(n))
	case n <= 0xFFFF:
		dst = append(dst, Tag16)
		return binary.LittleEndian.AppendUint16(dst, uint16(n))
	case n <= 0xFFFFFFFF:
		dst = append(dst, Tag32)
		return binary.LittleEndian.AppendUint32(dst, uint32(n))
	default:
		dst = append(dst, Tag64)
		return binary.LittleEndian.AppendUint64(dst, n)
	}
}

// Decode reads a value from the start of buf and returns it together with
// the number of bytes consumed.
func Decode(buf []byte) (uint64, int, error) {
	if len(buf) == 0 {
		return 0, 0, ErrTruncated
	}

	var width int
	switch buf[0] {
	case Tag16:
		width = 2
	case Tag32:
		width = 4
	case Tag64:
		width = 8
	default:
		return uint64(buf[0]), 1, nil
	}

	if len(buf) < 1+width {
		return 0, 0, fmt.Errorf("%w: tag 0x%02x needs %d bytes, have %d",
			ErrTruncated, buf[0], width, len(buf)-1)
	}

	payload := buf[1 : 1+width]
	switch width {
	case 2:
		return uint64(binary.LittleEndian.Uint16(payload)), 3, nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(payload)), 5, nil
	default:
		return binary.LittleEndian.Uint64(payload), 9, nil
	}
}

// Write writes the canonical encoding of n to w.
func Write(w io.Writer, n uint64) error {
	var scratch [9]byte
	_, err := w.Write(Append(scratch[:0], n))
	return err
}

// Read reads one encoded value from r.
func Read(r io.Reader) (uint64, error) {
	var first [1]byte
	if _, err := io.ReadFull(r, first[:]); err != nil {
		return 0, truncated(err)
	}

	var payload [8]byte
	switch first[0] {
	case Tag16:
		if _, err := io.ReadFull(r, payload[:2]); err != nil {
			return 0, truncated(err)
		}
		return uint64(binary.LittleEndian.Uint16(payload[:2])), nil
	case Tag32:
		if _, err := io.ReadFull(r, payload[:4]); err != nil {
			return 0, truncated(err)
		}
		return uint64(binary.LittleEndian.Uint32(payload[:4])), nil
	case Tag64:
		if _, err := io.ReadFull(r, payload[:]); err != nil {
			return 0, truncated(err)
		}
		return binary.LittleEndian.Uint64(payload[:]), nil
	default:
		return uint64(first[0]), nil
	}
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}
