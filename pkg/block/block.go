// Package block defines the chain records, other than transactions, that
// are identified by their canonical hash.
//
// Signatures and the validator bitfield are attached after a header is
// agreed upon, so they are left out of the identity.
package block

import (
	"github.com/suffix-labs/boa-sdk-go/pkg/crypto"
	"github.com/suffix-labs/boa-sdk-go/pkg/hash"
	"github.com/suffix-labs/boa-sdk-go/pkg/tx"
)

// Height is a block height.
type Height uint64

// ComputeHash implements hash.Hashable.
func (h Height) ComputeHash(w *hash.Writer) {
	w.WriteUint64(uint64(h))
}

// TimeStamp is a time offset in seconds.
type TimeStamp uint64

// ComputeHash implements hash.Hashable.
func (t TimeStamp) ComputeHash(w *hash.Writer) {
	w.WriteUint64(uint64(t))
}

// BitField is a packed set of validator indices, 32 per word.
type BitField []uint32

// NewBitField returns a BitField able to hold n bits.
func NewBitField(n int) BitField {
	return make(BitField, (n+31)/32)
}

// Set marks bit i.
func (b BitField) Set(i int) {
	b[i/32] |= 1 << (uint(i) % 32)
}

// Get reports whether bit i is set. Out of range bits are unset.
func (b BitField) Get(i int) bool {
	if i < 0 || i/32 >= len(b) {
		return false
	}
	return b[i/32]&(1<<(uint(i)%32)) != 0
}

// ComputeHash implements hash.Hashable.
func (b BitField) ComputeHash(w *hash.Writer) {
	hash.Part([]uint32(b), w)
}

// Enrollment registers a validator for a cycle, staking a frozen UTXO.
type Enrollment struct {
	UTXOKey     hash.Hash
	RandomSeed  hash.Hash
	CycleLength uint32
	Signature   crypto.Signature
}

// ComputeHash implements hash.Hashable. The signature is excluded.
func (e Enrollment) ComputeHash(w *hash.Writer) {
	hash.Record{e.UTXOKey, e.RandomSeed, e.CycleLength}.ComputeHash(w)
}

// Hash returns the identity of e.
func (e Enrollment) Hash() hash.Hash {
	return hash.Full(e)
}

// Sign signs the identity of e with the validator's key.
func (e *Enrollment) Sign(key crypto.SecretKey) error {
	sig, err := key.Sign(e.Hash())
	if err != nil {
		return err
	}
	e.Signature = sig
	return nil
}

// Header is a block header.
type Header struct {
	PrevBlock         hash.Hash
	Height            Height
	MerkleRoot        hash.Hash
	Validators        BitField
	Signature         crypto.Signature
	Enrollments       []Enrollment
	RandomSeed        hash.Hash
	MissingValidators []uint32
	TimeOffset        TimeStamp
}

// ComputeHash implements hash.Hashable. Validators and the signature are
// excluded.
func (h Header) ComputeHash(w *hash.Writer) {
	h.PrevBlock.ComputeHash(w)
	h.Height.ComputeHash(w)
	h.MerkleRoot.ComputeHash(w)
	hash.WriteSeq(w, h.Enrollments)
	h.RandomSeed.ComputeHash(w)
	hash.Part(h.MissingValidators, w)
	h.TimeOffset.ComputeHash(w)
}

// Hash returns the identity of h.
func (h Header) Hash() hash.Hash {
	return hash.Full(h)
}

// Block is a header together with its transactions.
type Block struct {
	Header       Header
	Transactions []tx.Transaction
	MerkleTree   []hash.Hash
}

// Hash returns the identity of the block, which is its header's.
func (b *Block) Hash() hash.Hash {
	return b.Header.Hash()
}

// BuildMerkleTree fills MerkleTree from the transactions and returns the
// root. Leaves are transaction hashes; each parent is the digest of its two
// children concatenated, and an odd node is paired with itself.
func BuildMerkleTree(txs []tx.Transaction) []hash.Hash {
	if len(txs) == 0 {
		return nil
	}

	tree := make([]hash.Hash, 0, 2*len(txs))
	for i := range txs {
		tree = append(tree, txs[i].Hash())
	}

	offset := 0
	for width := len(txs); width > 1; width = (width + 1) / 2 {
		for i := 0; i < width; i += 2 {
			left := tree[offset+i]
			right := left
			if i+1 < width {
				right = tree[offset+i+1]
			}
			tree = append(tree, hash.SumMulti(left[:], right[:]))
		}
		offset += width
	}
	return tree
}

// MerkleRoot returns the last node of a tree built by BuildMerkleTree.
func MerkleRoot(tree []hash.Hash) hash.Hash {
	if len(tree) == 0 {
		return hash.Empty
	}
	return tree[len(tree)-1]
}
