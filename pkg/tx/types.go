// Package tx defines the transaction records and their canonical identity.
//
// A Transaction is identified by the canonical hash of its body. Unlock
// proofs are left out of the pre-image, so attaching signatures never
// changes the identity that was signed.
//
// Pre-image layout:
//
//	type         1 byte
//	inputs       VarInt count, then per input: utxo (64 bytes) || unlock_age (u32 LE)
//	outputs      VarInt count, then per output: type (1 byte) || value (u64 LE) || lock
//	lock         type (1 byte) || VarInt length || bytes
//	payload      VarInt length || bytes
//	lock_height  u64 LE
package tx

import (
	"fmt"

	"github.com/suffix-labs/boa-sdk-go/pkg/crypto"
	"github.com/suffix-labs/boa-sdk-go/pkg/hash"
)

// TxType is the kind of a transaction.
type TxType uint8

const (
	Payment  TxType = 0
	Freeze   TxType = 1
	Coinbase TxType = 2
)

func (t TxType) String() string {
	switch t {
	case Payment:
		return "Payment"
	case Freeze:
		return "Freeze"
	case Coinbase:
		return "Coinbase"
	default:
		return fmt.Sprintf("TxType(%d)", uint8(t))
	}
}

// OutputType is the kind of an output. A Freeze output locks stake.
type OutputType uint8

const (
	OutputPayment  OutputType = 0
	OutputFreeze   OutputType = 1
	OutputCoinbase OutputType = 2
)

func (t OutputType) String() string {
	switch t {
	case OutputPayment:
		return "Payment"
	case OutputFreeze:
		return "Freeze"
	case OutputCoinbase:
		return "Coinbase"
	default:
		return fmt.Sprintf("OutputType(%d)", uint8(t))
	}
}

// OutputTypeOf returns the output type created by a transaction of type t.
func OutputTypeOf(t TxType) OutputType {
	return OutputType(t)
}

// LockType selects how a Lock is satisfied.
type LockType uint8

const (
	LockKey     LockType = 0 // Bytes is a 32-byte public key; unlock is a signature
	LockKeyHash LockType = 1 // Bytes is a 64-byte key hash
	LockScript  LockType = 2 // Bytes is a script
	LockRedeem  LockType = 3 // Bytes is a redeem script hash
)

func (t LockType) String() string {
	switch t {
	case LockKey:
		return "Key"
	case LockKeyHash:
		return "KeyHash"
	case LockScript:
		return "Script"
	case LockRedeem:
		return "Redeem"
	default:
		return fmt.Sprintf("LockType(%d)", uint8(t))
	}
}

// Estimated sizes in bytes, used for fee calculation.
const (
	TxBaseEstimatedSize   = 1 + 8                         // type + lock_height
	TxInputEstimatedSize  = hash.Width + 64 + 4           // utxo + unlock + unlock_age
	TxOutputEstimatedSize = 8 + crypto.PublicKeyWidth + 1 // value + key + type
)

// EstimatedSize returns the size of a transaction with the given number of
// key-locked inputs and outputs and a payload of payloadSize bytes.
func EstimatedSize(inputs, outputs, payloadSize int) int {
	return TxBaseEstimatedSize +
		TxInputEstimatedSize*inputs +
		TxOutputEstimatedSize*outputs +
		payloadSize
}

// Lock is the spending condition of an output.
type Lock struct {
	Type  LockType
	Bytes []byte
}

// LockFromKey returns a Key lock paying to pk.
func LockFromKey(pk crypto.PublicKey) Lock {
	return Lock{Type: LockKey, Bytes: pk.Bytes()}
}

// PublicKey returns the key of a Key lock.
func (l Lock) PublicKey() (crypto.PublicKey, bool) {
	if l.Type != LockKey {
		return crypto.PublicKey{}, false
	}
	pk, err := crypto.PublicKeyFromBytes(l.Bytes)
	if err != nil {
		return crypto.PublicKey{}, false
	}
	return pk, true
}

// ComputeHash implements hash.Hashable.
func (l Lock) ComputeHash(w *hash.Writer) {
	w.WriteUint8(uint8(l.Type))
	w.WriteBytes(l.Bytes)
}

// Unlock is the proof satisfying a Lock; for Key locks it is a signature.
type Unlock struct {
	Bytes []byte
}

// UnlockFromSignature wraps a Schnorr signature.
func UnlockFromSignature(sig crypto.Signature) Unlock {
	return Unlock{Bytes: append([]byte(nil), sig[:]...)}
}

// TxInput spends the output identified by UTXO.
type TxInput struct {
	UTXO      hash.Hash
	Unlock    Unlock
	UnlockAge uint32
}

// NewTxInput returns an input spending utxo with an empty signature slot.
func NewTxInput(utxo hash.Hash, unlockAge uint32) TxInput {
	return TxInput{
		UTXO:      utxo,
		Unlock:    Unlock{Bytes: make([]byte, crypto.SignatureWidth)},
		UnlockAge: unlockAge,
	}
}

// NewTxInputFromOutput returns an input spending output index of txHash.
func NewTxInputFromOutput(txHash hash.Hash, index uint64, unlockAge uint32) TxInput {
	return NewTxInput(hash.MakeUTXOKey(txHash, index), unlockAge)
}

// ComputeHash implements hash.Hashable. The unlock is not part of it.
func (in TxInput) ComputeHash(w *hash.Writer) {
	in.UTXO.ComputeHash(w)
	w.WriteUint32(in.UnlockAge)
}

// NumberOfBytes returns the size accounted for fees.
func (in TxInput) NumberOfBytes() int {
	return hash.Width + len(in.Unlock.Bytes) + 4
}

// TxOutput creates a new spendable amount.
type TxOutput struct {
	Type  OutputType
	Value uint64
	Lock  Lock
}

// NewTxOutput returns an output paying value to pk.
func NewTxOutput(typ OutputType, value uint64, pk crypto.PublicKey) TxOutput {
	return TxOutput{Type: typ, Value: value, Lock: LockFromKey(pk)}
}

// ComputeHash implements hash.Hashable.
func (out TxOutput) ComputeHash(w *hash.Writer) {
	w.WriteUint8(uint8(out.Type))
	w.WriteUint64(out.Value)
	out.Lock.ComputeHash(w)
}

// NumberOfBytes returns the size accounted for fees.
func (out TxOutput) NumberOfBytes() int {
	return 8 + len(out.Lock.Bytes) + 1
}

// Transaction is an ordered set of inputs and outputs with an optional
// data payload.
type Transaction struct {
	Type       TxType
	Inputs     []TxInput
	Outputs    []TxOutput
	Payload    []byte
	LockHeight uint64
}

// ComputeHash implements hash.Hashable.
func (t Transaction) ComputeHash(w *hash.Writer) {
	w.WriteUint8(uint8(t.Type))
	hash.WriteSeq(w, t.Inputs)
	hash.WriteSeq(w, t.Outputs)
	w.WriteBytes(t.Payload)
	w.WriteUint64(t.LockHeight)
}

// Hash returns the identity of t. A nil transaction hashes to hash.Empty.
func (t *Transaction) Hash() hash.Hash {
	return hash.Full(t)
}

// NumberOfBytes returns the size of t as accounted for fees. For
// key-locked inputs and outputs it equals EstimatedSize.
func (t *Transaction) NumberOfBytes() int {
	size := TxBaseEstimatedSize + len(t.Payload)
	for _, in := range t.Inputs {
		size += in.NumberOfBytes()
	}
	for _, out := range t.Outputs {
		size += out.NumberOfBytes()
	}
	return size
}

// SumOutputs returns the total value of the outputs.
func (t *Transaction) SumOutputs() (uint64, error) {
	var total uint64
	for i, out := range t.Outputs {
		next := total + out.Value
		if next < total {
			return 0, fmt.Errorf("output %d: value overflows uint64", i)
		}
		total = next
	}
	return total, nil
}

// VerifyInput checks the unlock of input i against owner.
func (t *Transaction) VerifyInput(i int, owner crypto.PublicKey) bool {
	if i < 0 || i >= len(t.Inputs) {
		return false
	}
	sig, err := crypto.SignatureFromBytes(t.Inputs[i].Unlock.Bytes)
	if err != nil {
		return false
	}
	return owner.Verify(sig, t.Hash())
}

// Clone returns a deep copy of t.
func (t *Transaction) Clone() *Transaction {
	c := &Transaction{
		Type:       t.Type,
		Inputs:     make([]TxInput, len(t.Inputs)),
		Outputs:    make([]TxOutput, len(t.Outputs)),
		Payload:    append([]byte(nil), t.Payload...),
		LockHeight: t.LockHeight,
	}
	for i, in := range t.Inputs {
		in.Unlock.Bytes = append([]byte(nil), in.Unlock.Bytes...)
		c.Inputs[i] = in
	}
	for i, out := range t.Outputs {
		out.Lock.Bytes = append([]byte(nil), out.Lock.Bytes...)
		c.Outputs[i] = out
	}
	return c
}
