package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/boa-sdk-go/pkg/crypto"
	"github.com/suffix-labs/boa-sdk-go/pkg/fee"
	"github.com/suffix-labs/boa-sdk-go/pkg/hash"
	"github.com/suffix-labs/boa-sdk-go/pkg/tx"
)

func testKeyPair(t *testing.T, fill byte) crypto.KeyPair {
	t.Helper()

	raw := make([]byte, crypto.SecretKeyWidth)
	for i := range raw {
		raw[i] = fill
	}
	secret, err := crypto.SecretKeyFromBytes(raw)
	require.NoError(t, err)
	return crypto.NewKeyPair(secret)
}

var (
	utxo1 = hash.Sum([]byte("utxo 1"))
	utxo2 = hash.Sum([]byte("utxo 2"))
)

func TestBuilderRejectsZeroAmount(t *testing.T) {
	owner := testKeyPair(t, 0x01)
	dest := testKeyPair(t, 0x02)

	b := NewBuilder(owner).
		AddInput(utxo1, 1_000_000_000, nil).
		AddOutput(dest.Address, 0)
	assert.True(t, tx.IsCode(b.Err(), tx.ErrInvalidAmount))

	_, err := b.Sign(tx.Payment)
	assert.True(t, tx.IsCode(err, tx.ErrInvalidAmount))
}

func TestBuilderRejectsOutputAboveInputs(t *testing.T) {
	owner := testKeyPair(t, 0x01)
	dest := testKeyPair(t, 0x02)

	b := NewBuilder(owner).
		AddInput(utxo1, 1_000_000_000, nil).
		AddOutput(dest.Address, 1_000_000_001)
	assert.True(t, tx.IsCode(b.Err(), tx.ErrInsufficientAmount))

	b = NewBuilder(owner).
		AddInput(utxo1, 1_000_000_000, nil).
		AddOutput(dest.Address, 600_000_000).
		AddOutput(dest.Address, 400_000_001)
	assert.True(t, tx.IsCode(b.Err(), tx.ErrInsufficientAmount), "running total is checked")
}

func TestBuilderSignsEveryInput(t *testing.T) {
	owner := testKeyPair(t, 0x01)
	dest := testKeyPair(t, 0x02)

	txn, err := NewBuilder(owner).
		AddInput(utxo1, 1_000_000_000, nil).
		AddInput(utxo2, 1_000_000_000, nil).
		AddOutput(dest.Address, 20_000_000).
		Sign(tx.Payment)
	require.NoError(t, err)

	require.Len(t, txn.Inputs, 2)
	assert.Equal(t, utxo1, txn.Inputs[0].UTXO)
	assert.Equal(t, utxo2, txn.Inputs[1].UTXO)

	require.Len(t, txn.Outputs, 2)
	assert.Equal(t, tx.NewTxOutput(tx.OutputPayment, 20_000_000, dest.Address), txn.Outputs[0])
	assert.Equal(t, tx.NewTxOutput(tx.OutputPayment, 1_980_000_000, owner.Address), txn.Outputs[1])
	assert.Empty(t, txn.Payload)
	assert.Equal(t, uint64(0), txn.LockHeight)

	for i := range txn.Inputs {
		assert.True(t, txn.VerifyInput(i, owner.Address), "input %d", i)
		assert.False(t, txn.VerifyInput(i, dest.Address), "input %d", i)
	}
}

func TestBuilderWithPayloadAndFees(t *testing.T) {
	owner := testKeyPair(t, 0x01)
	budget := crypto.MustPublicKeyFromString(fee.CommonsBudgetAddress)
	payload := []byte("atad etov")

	payloadFee := fee.MustPayloadFee(len(payload))
	require.Equal(t, uint64(500_000), payloadFee)

	txn, err := NewBuilder(owner).
		AddInput(utxo1, 1_000_000_000, nil).
		AddInput(utxo2, 1_000_000_000, nil).
		AddOutput(budget, payloadFee).
		AssignPayload(payload).
		Sign(tx.Payment, WithTxFee(100_000), WithLockHeight(17), WithUnlockAge(3))
	require.NoError(t, err)

	assert.Equal(t, payload, txn.Payload)
	assert.Equal(t, uint64(17), txn.LockHeight)
	for _, in := range txn.Inputs {
		assert.Equal(t, uint32(3), in.UnlockAge)
	}

	require.Len(t, txn.Outputs, 2)
	assert.Equal(t, payloadFee, txn.Outputs[0].Value)
	assert.Equal(t, uint64(2_000_000_000-500_000-100_000), txn.Outputs[1].Value)

	total, err := txn.SumOutputs()
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000_000-100_000), total)
}

func TestBuilderFreezeOutputs(t *testing.T) {
	owner := testKeyPair(t, 0x01)

	txn, err := NewBuilder(owner).
		AddInput(utxo1, 50_000, nil).
		AddOutput(owner.Address, 40_000).
		Sign(tx.Freeze)
	require.NoError(t, err)

	assert.Equal(t, tx.Freeze, txn.Type)
	assert.Equal(t, tx.OutputFreeze, txn.Outputs[0].Type)
	assert.Equal(t, tx.OutputPayment, txn.Outputs[1].Type, "change is always a payment")
}

func TestBuilderFeesExceedInputs(t *testing.T) {
	owner := testKeyPair(t, 0x01)
	dest := testKeyPair(t, 0x02)

	_, err := NewBuilder(owner).
		AddInput(utxo1, 1000, nil).
		AddOutput(dest.Address, 900).
		Sign(tx.Payment, WithTxFee(60), WithPayloadFee(41))
	assert.True(t, tx.IsCode(err, tx.ErrInsufficientAmount))

	_, err = NewBuilder(owner).
		AddInput(utxo1, 1000, nil).
		Sign(tx.Payment, WithTxFee(^uint64(0)), WithPayloadFee(2))
	assert.True(t, tx.IsCode(err, tx.ErrInsufficientAmount), "overflowing fees")
}

func TestBuilderPerInputKeys(t *testing.T) {
	owner := testKeyPair(t, 0x01)
	other := testKeyPair(t, 0x03)

	txn, err := NewBuilder(owner).
		AddInput(utxo1, 1000, nil).
		AddInput(utxo2, 1000, &other.Secret).
		Sign(tx.Payment)
	require.NoError(t, err)

	assert.True(t, txn.VerifyInput(0, owner.Address))
	assert.True(t, txn.VerifyInput(1, other.Address))
	assert.False(t, txn.VerifyInput(1, owner.Address))
}

func TestBuilderMissingKey(t *testing.T) {
	watchOnly := crypto.KeyPair{Address: testKeyPair(t, 0x01).Address}
	other := testKeyPair(t, 0x03)

	_, err := NewBuilder(watchOnly).
		AddInput(utxo1, 1000, &other.Secret).
		AddInput(utxo2, 1000, nil).
		Sign(tx.Payment)
	assert.True(t, tx.IsCode(err, tx.ErrMissingKey))
}

func TestBuilderRequiresInput(t *testing.T) {
	_, err := NewBuilder(testKeyPair(t, 0x01)).Sign(tx.Payment)
	assert.True(t, tx.IsCode(err, tx.ErrInvalidInput))
}

func TestBuilderPayloadTooLarge(t *testing.T) {
	b := NewBuilder(testKeyPair(t, 0x01)).
		AddInput(utxo1, 1000, nil).
		AssignPayload(make([]byte, fee.TxPayloadMaxSize+1))
	assert.True(t, tx.IsCode(b.Err(), tx.ErrPayloadTooLarge))
	assert.ErrorIs(t, b.Err(), fee.ErrSizeOutOfRange)
}

func TestBuilderIsSingleUse(t *testing.T) {
	owner := testKeyPair(t, 0x01)

	b := NewBuilder(owner).AddInput(utxo1, 1000, nil)
	_, err := b.Sign(tx.Payment)
	require.NoError(t, err)

	_, err = b.Sign(tx.Payment)
	assert.True(t, tx.IsCode(err, tx.ErrAlreadySigned))

	b.AddInput(utxo2, 1000, nil)
	assert.True(t, tx.IsCode(b.Err(), tx.ErrAlreadySigned))

	b = NewBuilder(owner).AddInput(utxo1, 1000, nil)
	_, err = b.Sign(tx.Payment)
	require.NoError(t, err)
	b.AddOutput(owner.Address, 1)
	_, err = b.Sign(tx.Payment)
	assert.True(t, tx.IsCode(err, tx.ErrAlreadySigned))
}
