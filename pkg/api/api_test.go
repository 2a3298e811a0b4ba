package api

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/boa-sdk-go/pkg/crypto"
	"github.com/suffix-labs/boa-sdk-go/pkg/fee"
	"github.com/suffix-labs/boa-sdk-go/pkg/hash"
	"github.com/suffix-labs/boa-sdk-go/pkg/roles"
	"github.com/suffix-labs/boa-sdk-go/pkg/tx"
	"github.com/suffix-labs/boa-sdk-go/pkg/uri"
	"github.com/suffix-labs/boa-sdk-go/pkg/utxo"
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

func ownedUTXOs(owner crypto.KeyPair, amounts ...uint64) []utxo.UnspentTxOutput {
	out := make([]utxo.UnspentTxOutput, len(amounts))
	for i, amount := range amounts {
		out[i] = utxo.UnspentTxOutput{
			UTXO:      hash.Sum([]byte(fmt.Sprintf("api utxo %d", i))),
			Type:      tx.OutputPayment,
			Amount:    amount,
			LockType:  tx.LockKey,
			LockBytes: owner.Address.Bytes(),
		}
	}
	return out
}

func TestCreatePayment(t *testing.T) {
	owner := testKeyPair(t, 0x01)
	dest := testKeyPair(t, 0x02)
	utxos := ownedUTXOs(owner, 1_000_000_000, 1_000_000_000, 1_000_000_000)

	txn, err := CreatePayment(PaymentParams{
		Owner:      owner,
		UTXOs:      utxos,
		Height:     100,
		Recipients: []Recipient{{Address: dest.Address, Amount: 1_500_000_000}},
		LockHeight: 90,
	})
	require.NoError(t, err)

	// Two inputs and two outputs: 355 bytes at the default rate.
	require.Len(t, txn.Inputs, 2)
	assert.Equal(t, utxos[0].UTXO, txn.Inputs[0].UTXO)
	assert.Equal(t, utxos[1].UTXO, txn.Inputs[1].UTXO)

	require.Len(t, txn.Outputs, 2)
	assert.Equal(t, tx.NewTxOutput(tx.OutputPayment, 1_500_000_000, dest.Address), txn.Outputs[0])
	assert.Equal(t, tx.NewTxOutput(tx.OutputPayment, 500_000_000-355*DefaultFeeRate, owner.Address), txn.Outputs[1])
	assert.Equal(t, uint64(90), txn.LockHeight)

	for i := range txn.Inputs {
		assert.True(t, txn.VerifyInput(i, owner.Address))
	}
}

func TestCreatePaymentInsufficientFunds(t *testing.T) {
	owner := testKeyPair(t, 0x01)
	dest := testKeyPair(t, 0x02)

	_, err := CreatePayment(PaymentParams{
		Owner:      owner,
		UTXOs:      ownedUTXOs(owner, 1000),
		Recipients: []Recipient{{Address: dest.Address, Amount: 1000}},
	})
	assert.ErrorIs(t, err, utxo.ErrInsufficientFunds)

	_, err = CreatePayment(PaymentParams{Owner: owner, UTXOs: ownedUTXOs(owner, 1000)})
	assert.True(t, tx.IsCode(err, tx.ErrInvalidInput))

	_, err = CreatePayment(PaymentParams{
		Owner:      owner,
		UTXOs:      ownedUTXOs(owner, 1000),
		Recipients: []Recipient{{Address: dest.Address}},
	})
	assert.True(t, tx.IsCode(err, tx.ErrInvalidAmount))
}

func TestCreatePaymentRejectsOverflow(t *testing.T) {
	owner := testKeyPair(t, 0x01)
	dest := testKeyPair(t, 0x02)
	utxos := ownedUTXOs(owner, math.MaxUint64)

	_, err := CreatePayment(PaymentParams{
		Owner: owner,
		UTXOs: utxos,
		Recipients: []Recipient{
			{Address: dest.Address, Amount: math.MaxUint64 - 10},
			{Address: dest.Address, Amount: 20},
		},
	})
	assert.True(t, tx.IsCode(err, tx.ErrInvalidAmount), "recipient total")

	_, err = CreatePayment(PaymentParams{
		Owner:      owner,
		UTXOs:      utxos,
		Recipients: []Recipient{{Address: dest.Address, Amount: 1000}},
		FeeRate:    math.MaxUint64 / 100,
	})
	assert.True(t, tx.IsCode(err, tx.ErrInvalidAmount), "fee rate times size")

	_, err = CreatePayment(PaymentParams{
		Owner:      owner,
		UTXOs:      utxos,
		Recipients: []Recipient{{Address: dest.Address, Amount: math.MaxUint64 - 1000}},
	})
	assert.True(t, tx.IsCode(err, tx.ErrInvalidAmount), "amount plus fee")
}

func TestCreateDataTransaction(t *testing.T) {
	owner := testKeyPair(t, 0x01)
	payload := []byte("hello")

	txn, err := CreateDataTransaction(owner, ownedUTXOs(owner, 1_000_000_000), 0, payload, 0)
	require.NoError(t, err)

	assert.Equal(t, payload, txn.Payload)
	require.Len(t, txn.Outputs, 2)

	budget := crypto.MustPublicKeyFromString(fee.CommonsBudgetAddress)
	assert.Equal(t, tx.NewTxOutput(tx.OutputPayment, 300_000, budget), txn.Outputs[0])

	// 9 + 132 + 2*41 + 5 = 228 bytes.
	assert.Equal(t, uint64(1_000_000_000-300_000-228*DefaultFeeRate), txn.Outputs[1].Value)

	_, err = CreateDataTransaction(owner, nil, 0, nil, 0)
	assert.True(t, tx.IsCode(err, tx.ErrInvalidInput))

	_, err = CreateDataTransaction(owner, nil, 0, make([]byte, fee.TxPayloadMaxSize+1), 0)
	assert.True(t, tx.IsCode(err, tx.ErrPayloadTooLarge))
}

func TestPayRequest(t *testing.T) {
	owner := testKeyPair(t, 0x01)
	dest := testKeyPair(t, 0x02)

	req, err := ParsePaymentRequest(uri.Scheme + dest.Address.String() + "?amount=2000000")
	require.NoError(t, err)

	txn, err := PayRequest(req, owner, ownedUTXOs(owner, 1_000_000_000), 0, 2000)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000), txn.Outputs[0].Value)
	assert.Equal(t, dest.Address, mustOwner(t, txn.Outputs[0]))

	// 9 + 132 + 2*41 = 223 bytes at 2000 per byte.
	assert.Equal(t, uint64(1_000_000_000-2_000_000-223*2000), txn.Outputs[1].Value)

	open, err := ParsePaymentRequest(dest.Address.String())
	require.NoError(t, err)
	_, err = PayRequest(open, owner, ownedUTXOs(owner, 1_000_000_000), 0, 0)
	assert.True(t, tx.IsCode(err, tx.ErrInvalidAmount))

	_, err = ParsePaymentRequest("boa:?amount=1")
	assert.Error(t, err)
}

func TestPaymentThenCancel(t *testing.T) {
	owner := testKeyPair(t, 0x01)
	dest := testKeyPair(t, 0x02)
	utxos := ownedUTXOs(owner, 1_000_000_000, 1_000_000_000)

	pending, err := CreatePayment(PaymentParams{
		Owner:      owner,
		UTXOs:      utxos,
		Recipients: []Recipient{{Address: dest.Address, Amount: 1_200_000_000}},
	})
	require.NoError(t, err)

	result, err := CancelTransaction(pending, utxos, []crypto.KeyPair{owner}, 0)
	require.NoError(t, err)
	require.Equal(t, roles.CancelSuccess, result.Code)

	replacement := result.Tx
	assert.Equal(t, roles.Inputs(pending), roles.Inputs(replacement))
	for _, out := range replacement.Outputs {
		assert.Equal(t, owner.Address, mustOwner(t, out))
	}

	// The replacement pays a strictly higher rate.
	pendingOut, err := pending.SumOutputs()
	require.NoError(t, err)
	replacementOut, err := replacement.SumOutputs()
	require.NoError(t, err)

	sumIn := utxo.Sum(utxos)
	pendingRate := (sumIn - pendingOut) / uint64(pending.NumberOfBytes())
	replacementRate := (sumIn - replacementOut) / uint64(replacement.NumberOfBytes())
	assert.Greater(t, replacementRate, pendingRate)
}

func TestSharedSpend(t *testing.T) {
	alice := testKeyPair(t, 0x0A)
	bob := testKeyPair(t, 0x0B)
	dest := testKeyPair(t, 0x02)

	utxos := append(ownedUTXOs(alice, 1_000_000_000), ownedUTXOs(bob, 0, 1_000_000_000)[1])

	unsigned, err := roles.NewBuilder(alice).
		AddInput(utxos[0].UTXO, utxos[0].Amount, nil).
		AddInput(utxos[1].UTXO, utxos[1].Amount, nil).
		AddOutput(dest.Address, 1_500_000_000).
		Unsigned(tx.Payment, roles.WithTxFee(500_000))
	require.NoError(t, err)

	fromAlice, err := SignOwnedInputs(unsigned, alice.Secret, utxos)
	require.NoError(t, err)
	fromBob, err := SignOwnedInputs(unsigned, bob.Secret, utxos)
	require.NoError(t, err)

	_, err = SignOwnedInputs(unsigned, dest.Secret, utxos)
	assert.True(t, tx.IsCode(err, tx.ErrMissingKey))

	combined, err := CombineTransactions(fromAlice, fromBob)
	require.NoError(t, err)
	assert.True(t, combined.VerifyInput(0, alice.Address))
	assert.True(t, combined.VerifyInput(1, bob.Address))
}

func TestTransactionEncoding(t *testing.T) {
	owner := testKeyPair(t, 0x01)

	txn, err := CreateDataTransaction(owner, ownedUTXOs(owner, 1_000_000_000), 0, []byte("x"), 0)
	require.NoError(t, err)

	decoded, err := ParseTransaction(SerializeTransaction(txn))
	require.NoError(t, err)
	assert.Equal(t, txn.Hash(), decoded.Hash())
	assert.True(t, decoded.VerifyInput(0, owner.Address))
}

func mustOwner(t *testing.T, out tx.TxOutput) crypto.PublicKey {
	t.Helper()

	pk, ok := out.Lock.PublicKey()
	require.True(t, ok)
	return pk
}
