package hash

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/suffix-labs/boa-sdk-go/pkg/varint"
)

// Hashable is implemented by every composite record that decides which of
// its fields contribute to its identity, and in which order.
//
// Fields left out of ComputeHash (signatures, unlock proofs) do not affect
// the record's hash. Implementations with pointer receivers must tolerate
// a nil receiver.
type Hashable interface {
	ComputeHash(w *Writer)
}

// Writer accumulates a canonical pre-image.
//
// Encoding rules:
//   - string, []byte: VarInt byte length, then the bytes
//   - uint32: 4 bytes little-endian
//   - uint64: 8 bytes little-endian, no prefix
//   - sequences: VarInt element count, then each element
//   - Hashable: whatever ComputeHash writes
//   - nil: nothing
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteRaw appends b with no prefix.
func (w *Writer) WriteRaw(b []byte) {
	w.buf.Write(b)
}

// WriteUint8 appends a single byte.
func (w *Writer) WriteUint8(v uint8) {
	w.buf.WriteByte(v)
}

// WriteUint32 appends v as 4 little-endian bytes.
func (w *Writer) WriteUint32(v uint32) {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], v)
	w.buf.Write(scratch[:])
}

// WriteUint64 appends v as 8 little-endian bytes.
func (w *Writer) WriteUint64(v uint64) {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], v)
	w.buf.Write(scratch[:])
}

// WriteVarInt appends the canonical VarInt encoding of v.
func (w *Writer) WriteVarInt(v uint64) {
	var scratch [9]byte
	w.buf.Write(varint.Append(scratch[:0], v))
}

// WriteBytes appends a VarInt length prefix followed by b.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteVarInt(uint64(len(b)))
	w.buf.Write(b)
}

// WriteString appends a VarInt length prefix followed by the UTF-8 bytes of s.
func (w *Writer) WriteString(s string) {
	w.WriteVarInt(uint64(len(s)))
	w.buf.WriteString(s)
}

// WritePart appends the contribution of v. See Part.
func (w *Writer) WritePart(v any) {
	Part(v, w)
}

// Bytes returns the pre-image accumulated so far.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Sum returns the digest of the accumulated pre-image.
func (w *Writer) Sum() Hash {
	return Sum(w.buf.Bytes())
}

// WriteSeq appends a VarInt element count and then each element.
func WriteSeq[T Hashable](w *Writer, items []T) {
	w.WriteVarInt(uint64(len(items)))
	for _, item := range items {
		Part(item, w)
	}
}

// Seq is an ordered sequence of records.
type Seq[T Hashable] []T

// ComputeHash implements Hashable.
func (s Seq[T]) ComputeHash(w *Writer) {
	WriteSeq(w, []T(s))
}

// Record is a structured value whose fields contribute in the listed order.
//
// Field order is part of the hash contract, so records spell it out
// instead of relying on struct iteration:
//
//	hash.Record{e.UTXOKey, e.RandomSeed, e.CycleLength}.ComputeHash(w)
type Record []any

// ComputeHash implements Hashable. Unlike Seq, no count prefix is written.
func (r Record) ComputeHash(w *Writer) {
	for _, field := range r {
		Part(field, w)
	}
}

// Full returns the identity of record: the digest of its canonical
// pre-image. An absent record (nil, or a nil pointer) yields Empty.
func Full(record any) Hash {
	if isNil(record) {
		return Empty
	}

	w := NewWriter()
	Part(record, w)
	return w.Sum()
}

// Part appends the canonical contribution of record to w.
//
// The supported kinds are closed: Hashable, string, uint32, uint64, []byte,
// []uint32, []uint64, []string and []Hashable. Anything else is a
// programming error and panics.
func Part(record any, w *Writer) {
	if isNil(record) {
		return
	}

	switch v := record.(type) {
	case Hashable:
		v.ComputeHash(w)
	case string:
		w.WriteString(v)
	case uint32:
		w.WriteUint32(v)
	case uint64:
		w.WriteUint64(v)
	case []byte:
		w.WriteBytes(v)
	case []uint32:
		w.WriteVarInt(uint64(len(v)))
		for _, elem := range v {
			w.WriteUint32(elem)
		}
	case []uint64:
		w.WriteVarInt(uint64(len(v)))
		for _, elem := range v {
			w.WriteUint64(elem)
		}
	case []string:
		w.WriteVarInt(uint64(len(v)))
		for _, elem := range v {
			w.WriteString(elem)
		}
	case []Hashable:
		WriteSeq(w, v)
	default:
		panic(fmt.Sprintf("hash: unsupported type %T in canonical encoding", record))
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
