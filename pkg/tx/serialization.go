package tx

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/suffix-labs/boa-sdk-go/pkg/hash"
	"github.com/suffix-labs/boa-sdk-go/pkg/varint"
)

// Binary wire format (all counts and lengths are VarInts):
//
//	type || #inputs || inputs || #outputs || outputs || payload || lock_height
//	input:  utxo (64 bytes) || unlock (len || bytes) || unlock_age (VarInt)
//	output: type (1 byte) || value (VarInt) || lock type (1 byte) || lock (len || bytes)
//	payload: len || bytes
//	lock_height: VarInt

// Serialize encodes t in the binary wire format.
func (t *Transaction) Serialize() []byte {
	buf := new(bytes.Buffer)
	// bytes.Buffer writes never fail.
	_ = t.Encode(buf)
	return buf.Bytes()
}

// Encode writes t to w in the binary wire format.
func (t *Transaction) Encode(w io.Writer) error {
	e := &encoder{w: w}

	e.byte(uint8(t.Type))

	e.varint(uint64(len(t.Inputs)))
	for _, in := range t.Inputs {
		e.raw(in.UTXO[:])
		e.bytes(in.Unlock.Bytes)
		e.varint(uint64(in.UnlockAge))
	}

	e.varint(uint64(len(t.Outputs)))
	for _, out := range t.Outputs {
		e.byte(uint8(out.Type))
		e.varint(out.Value)
		e.byte(uint8(out.Lock.Type))
		e.bytes(out.Lock.Bytes)
	}

	e.bytes(t.Payload)
	e.varint(t.LockHeight)

	return e.err
}

// Deserialize decodes a transaction. Trailing bytes are rejected.
func Deserialize(data []byte) (*Transaction, error) {
	r := bytes.NewReader(data)
	t, err := Decode(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, &ParseError{Message: fmt.Sprintf("%d trailing bytes", r.Len())}
	}
	return t, nil
}

// Decode reads one transaction from r.
func Decode(r io.Reader) (*Transaction, error) {
	d := &decoder{r: r}
	t := &Transaction{}

	t.Type = TxType(d.byte("type"))

	numInputs := d.count("input count")
	if d.err == nil && numInputs > 0 {
		t.Inputs = make([]TxInput, 0, min(numInputs, maxPrealloc))
	}
	for i := 0; d.err == nil && i < numInputs; i++ {
		var in TxInput
		copy(in.UTXO[:], d.raw(hash.Width, "utxo"))
		in.Unlock.Bytes = d.bytes("unlock")
		in.UnlockAge = d.uint32("unlock_age")
		t.Inputs = append(t.Inputs, in)
	}

	numOutputs := d.count("output count")
	if d.err == nil && numOutputs > 0 {
		t.Outputs = make([]TxOutput, 0, min(numOutputs, maxPrealloc))
	}
	for i := 0; d.err == nil && i < numOutputs; i++ {
		var out TxOutput
		out.Type = OutputType(d.byte("output type"))
		out.Value = d.varint("value")
		out.Lock.Type = LockType(d.byte("lock type"))
		out.Lock.Bytes = d.bytes("lock")
		t.Outputs = append(t.Outputs, out)
	}

	t.Payload = d.bytes("payload")
	t.LockHeight = d.varint("lock_height")

	if d.err != nil {
		return nil, d.err
	}
	return t, nil
}

// encoder keeps the first write error so callers check once.
type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) raw(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

func (e *encoder) byte(b uint8) {
	e.raw([]byte{b})
}

func (e *encoder) varint(n uint64) {
	if e.err != nil {
		return
	}
	e.err = varint.Write(e.w, n)
}

func (e *encoder) bytes(b []byte) {
	e.varint(uint64(len(b)))
	e.raw(b)
}

// decoder keeps the first read error, tagged with the field being read.
type decoder struct {
	r   io.Reader
	err error
}

const (
	// maxFieldLength bounds a single length prefix.
	maxFieldLength = 1 << 24

	// maxPrealloc bounds what a length prefix may allocate before the
	// data behind it has been read. Longer fields grow as they are read.
	maxPrealloc = 1 << 10
)

func (d *decoder) fail(field string, err error) {
	if d.err == nil {
		d.err = &ParseError{Message: "failed to read " + field, Cause: err}
	}
}

func (d *decoder) raw(n int, field string) []byte {
	if d.err != nil {
		return nil
	}
	if n <= maxPrealloc {
		buf := make([]byte, n)
		if _, err := io.ReadFull(d.r, buf); err != nil {
			d.fail(field, varintTruncated(err))
			return nil
		}
		return buf
	}

	var buf bytes.Buffer
	buf.Grow(maxPrealloc)
	read, err := io.CopyN(&buf, d.r, int64(n))
	if err != nil || read != int64(n) {
		d.fail(field, varintTruncated(err))
		return nil
	}
	return buf.Bytes()
}

func (d *decoder) byte(field string) uint8 {
	b := d.raw(1, field)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) varint(field string) uint64 {
	if d.err != nil {
		return 0
	}
	n, err := varint.Read(d.r)
	if err != nil {
		d.fail(field, err)
		return 0
	}
	return n
}

func (d *decoder) uint32(field string) uint32 {
	n := d.varint(field)
	if n > math.MaxUint32 {
		d.fail(field, fmt.Errorf("value %d exceeds 32 bits", n))
		return 0
	}
	return uint32(n)
}

func (d *decoder) count(field string) int {
	n := d.varint(field)
	if n > maxFieldLength {
		d.fail(field, fmt.Errorf("length %d exceeds limit %d", n, maxFieldLength))
		return 0
	}
	return int(n)
}

func (d *decoder) bytes(field string) []byte {
	n := d.count(field)
	if d.err != nil || n == 0 {
		return nil
	}
	return d.raw(n, field)
}

func varintTruncated(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return varint.ErrTruncated
	}
	return err
}
