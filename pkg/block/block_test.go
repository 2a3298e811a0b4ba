package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/boa-sdk-go/pkg/crypto"
	"github.com/suffix-labs/boa-sdk-go/pkg/hash"
	"github.com/suffix-labs/boa-sdk-go/pkg/tx"
)

func sampleEnrollment() Enrollment {
	return Enrollment{
		UTXOKey:     hash.Sum([]byte("stake")),
		RandomSeed:  hash.Sum([]byte("seed")),
		CycleLength: 1008,
	}
}

func TestEnrollmentHash(t *testing.T) {
	e := sampleEnrollment()

	w := hash.NewWriter()
	w.WriteRaw(e.UTXOKey[:])
	w.WriteRaw(e.RandomSeed[:])
	w.WriteUint32(1008)
	assert.Equal(t, w.Sum(), e.Hash())
}

func TestEnrollmentSignatureExcluded(t *testing.T) {
	raw := make([]byte, crypto.SecretKeyWidth)
	raw[31] = 7
	secret, err := crypto.SecretKeyFromBytes(raw)
	require.NoError(t, err)

	e := sampleEnrollment()
	before := e.Hash()
	require.NoError(t, e.Sign(secret))

	assert.Equal(t, before, e.Hash())
	assert.True(t, secret.PublicKey().Verify(e.Signature, before))
}

func TestHeaderHash(t *testing.T) {
	h := Header{
		PrevBlock:         hash.Sum([]byte("prev")),
		Height:            12,
		MerkleRoot:        hash.Sum([]byte("root")),
		Enrollments:       []Enrollment{sampleEnrollment()},
		RandomSeed:        hash.Sum([]byte("seed")),
		MissingValidators: []uint32{1, 5},
		TimeOffset:        600,
	}

	w := hash.NewWriter()
	w.WriteRaw(h.PrevBlock[:])
	w.WriteUint64(12)
	w.WriteRaw(h.MerkleRoot[:])
	w.WriteVarInt(1)
	sampleEnrollment().ComputeHash(w)
	w.WriteRaw(h.RandomSeed[:])
	w.WriteVarInt(2)
	w.WriteUint32(1)
	w.WriteUint32(5)
	w.WriteUint64(600)
	expected := w.Sum()

	assert.Equal(t, expected, h.Hash())

	h.Validators = NewBitField(40)
	h.Validators.Set(3)
	h.Signature[0] = 0xAA
	assert.Equal(t, expected, h.Hash(), "validators and signature are not hashed")

	h.TimeOffset++
	assert.NotEqual(t, expected, h.Hash())

	b := &Block{Header: h}
	assert.Equal(t, h.Hash(), b.Hash())
}

func TestBitField(t *testing.T) {
	b := NewBitField(33)
	require.Len(t, b, 2)

	b.Set(0)
	b.Set(32)
	assert.True(t, b.Get(0))
	assert.True(t, b.Get(32))
	assert.False(t, b.Get(1))
	assert.False(t, b.Get(64))
	assert.False(t, b.Get(-1))
	assert.Equal(t, BitField{1, 1}, b)

	w := hash.NewWriter()
	b.ComputeHash(w)
	assert.Equal(t, []byte{2, 1, 0, 0, 0, 1, 0, 0, 0}, w.Bytes())
}

func TestMerkleTree(t *testing.T) {
	assert.Nil(t, BuildMerkleTree(nil))
	assert.Equal(t, hash.Empty, MerkleRoot(nil))

	txs := []tx.Transaction{
		{Type: tx.Payment, LockHeight: 1},
		{Type: tx.Payment, LockHeight: 2},
		{Type: tx.Payment, LockHeight: 3},
	}
	tree := BuildMerkleTree(txs)

	h0, h1, h2 := txs[0].Hash(), txs[1].Hash(), txs[2].Hash()
	h01 := hash.SumMulti(h0[:], h1[:])
	h22 := hash.SumMulti(h2[:], h2[:])
	root := hash.SumMulti(h01[:], h22[:])

	require.Len(t, tree, 6)
	assert.Equal(t, []hash.Hash{h0, h1, h2, h01, h22, root}, tree)
	assert.Equal(t, root, MerkleRoot(tree))

	single := BuildMerkleTree(txs[:1])
	assert.Equal(t, []hash.Hash{h0}, single)
}
