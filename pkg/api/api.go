// Package api provides the high-level flows of the SDK.
//
// It ties coin selection, fee calculation, building and cancellation
// together:
//
//  1. CreatePayment - Selects UTXOs, prices and signs a payment
//  2. CreateDataTransaction - Stores a payload, paying its fee to the commons budget
//  3. PayRequest - Pays a parsed "boa:" payment request
//  4. CancelTransaction - Builds a fee-bumped replacement of a pending transaction
//  5. SignOwnedInputs / CombineTransactions - Inputs signed by several owners
//  6. ParseTransaction / SerializeTransaction - Binary encoding/decoding
//
// UTXO sets and the current height are supplied by the caller, usually from
// a node's REST API.
package api

import (
	"fmt"
	"math/bits"

	"github.com/rs/zerolog"

	"github.com/suffix-labs/boa-sdk-go/pkg/crypto"
	"github.com/suffix-labs/boa-sdk-go/pkg/fee"
	"github.com/suffix-labs/boa-sdk-go/pkg/roles"
	"github.com/suffix-labs/boa-sdk-go/pkg/tx"
	"github.com/suffix-labs/boa-sdk-go/pkg/uri"
	"github.com/suffix-labs/boa-sdk-go/pkg/utxo"
)

// DefaultFeeRate is the transaction fee per byte used when none is given.
const DefaultFeeRate = 1000

// maxSelectionRounds bounds the fee/selection fixpoint in CreatePayment.
const maxSelectionRounds = 8

// Recipient is one output of a payment.
type Recipient struct {
	Address crypto.PublicKey
	Amount  uint64
}

// PaymentParams describes a payment to build.
type PaymentParams struct {
	Owner      crypto.KeyPair         // Signs the inputs and receives the change
	UTXOs      []utxo.UnspentTxOutput // Candidates, in preference order
	Height     uint64                 // Current block height
	Recipients []Recipient            // Outputs to create
	Payload    []byte                 // Optional data payload
	FeeRate    uint64                 // Fee per byte (0 = DefaultFeeRate)
	LockHeight uint64                 // Height before which the tx is invalid
}

// Option configures the api calls.
type Option func(*options)

type options struct {
	logger zerolog.Logger
}

// WithLogger sets the logger receiving debug output.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func applyOptions(opts []Option) options {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ============================================================================
// Payments
// ============================================================================

// CreatePayment builds and signs a payment.
//
// This function:
//  1. Prices the payload, paid as an output to the commons budget
//  2. Selects UTXOs covering the recipients and both fees; the transaction
//     fee depends on the number of inputs, so selection repeats until the
//     estimate is stable
//  3. Builds and signs the transaction, returning change to the owner
//
// Parameters:
//   - params: owner, UTXO set, chain height, recipients, payload and fee
//     rate (DefaultFeeRate when zero)
//   - opts: logger
//
// Returns an error if:
//   - there is neither a recipient nor a payload (INVALID_INPUT)
//   - a recipient amount is zero or the amounts and fees overflow
//     (INVALID_AMOUNT)
//   - the payload exceeds fee.TxPayloadMaxSize (PAYLOAD_TOO_LARGE)
//   - the spendable UTXOs cannot cover the payment (utxo.ErrInsufficientFunds)
func CreatePayment(params PaymentParams, opts ...Option) (*tx.Transaction, error) {
	o := applyOptions(opts)

	if len(params.Recipients) == 0 && len(params.Payload) == 0 {
		return nil, &tx.BuildError{Code: tx.ErrInvalidInput, Message: "payment has no recipient and no payload"}
	}

	rate := params.FeeRate
	if rate == 0 {
		rate = DefaultFeeRate
	}

	payloadFee, err := fee.PayloadFee(len(params.Payload))
	if err != nil {
		return nil, &tx.BuildError{Code: tx.ErrPayloadTooLarge, Message: "payload rejected", Cause: err}
	}

	var sent uint64
	for i, r := range params.Recipients {
		if r.Amount == 0 {
			return nil, &tx.BuildError{
				Code:    tx.ErrInvalidAmount,
				Message: fmt.Sprintf("recipient %d: positive amount expected", i),
			}
		}
		var carry uint64
		sent, carry = bits.Add64(sent, r.Amount, 0)
		if carry != 0 {
			return nil, &tx.BuildError{Code: tx.ErrInvalidAmount, Message: "recipient amounts overflow"}
		}
	}

	// Recipients, the commons budget output and the change.
	numOutputs := len(params.Recipients) + 1
	if len(params.Payload) > 0 {
		numOutputs++
	}

	var (
		selected []utxo.UnspentTxOutput
		txFee    uint64
	)
	numInputs := 1
	for round := 0; ; round++ {
		if round == maxSelectionRounds {
			return nil, fmt.Errorf("fee estimate did not converge after %d rounds", round)
		}

		var target uint64
		txFee, target, err = paymentTarget(rate, tx.EstimatedSize(numInputs, numOutputs, len(params.Payload)), sent, payloadFee)
		if err != nil {
			return nil, err
		}
		selected, err = utxo.Select(params.UTXOs, target, params.Height)
		if err != nil {
			return nil, fmt.Errorf("failed to select UTXOs: %w", err)
		}
		if len(selected) <= numInputs {
			break
		}
		numInputs = len(selected)
	}

	o.logger.Debug().
		Int("inputs", len(selected)).
		Uint64("amount", sent).
		Uint64("tx_fee", txFee).
		Uint64("payload_fee", payloadFee).
		Msg("payment inputs selected")

	builder := roles.NewBuilder(params.Owner).AddUTXOs(selected)
	for _, r := range params.Recipients {
		builder.AddOutput(r.Address, r.Amount)
	}
	if len(params.Payload) > 0 {
		builder.AddOutput(crypto.MustPublicKeyFromString(fee.CommonsBudgetAddress), payloadFee).
			AssignPayload(params.Payload)
	}

	txn, err := builder.Sign(tx.Payment,
		roles.WithTxFee(txFee),
		roles.WithLockHeight(params.LockHeight))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment: %w", err)
	}

	o.logger.Debug().Stringer("hash", txn.Hash()).Int("size", txn.NumberOfBytes()).Msg("payment signed")
	return txn, nil
}

// paymentTarget prices a transaction of size bytes at rate and returns the
// fee along with the amount the inputs must cover.
func paymentTarget(rate uint64, size int, sent, payloadFee uint64) (txFee, target uint64, err error) {
	hi, txFee := bits.Mul64(rate, uint64(size))
	fees, carry := bits.Add64(txFee, payloadFee, 0)
	target, carry2 := bits.Add64(sent, fees, 0)
	if hi != 0 || carry != 0 || carry2 != 0 {
		return 0, 0, &tx.BuildError{
			Code:    tx.ErrInvalidAmount,
			Message: fmt.Sprintf("fee at rate %d for %d bytes overflows", rate, size),
		}
	}
	return txFee, target, nil
}

// CreateDataTransaction stores payload on chain. The only outputs are the
// payload fee and the change.
func CreateDataTransaction(
	owner crypto.KeyPair,
	utxos []utxo.UnspentTxOutput,
	height uint64,
	payload []byte,
	feeRate uint64,
	opts ...Option,
) (*tx.Transaction, error) {
	if len(payload) == 0 {
		return nil, &tx.BuildError{Code: tx.ErrInvalidInput, Message: "empty payload"}
	}
	return CreatePayment(PaymentParams{
		Owner:   owner,
		UTXOs:   utxos,
		Height:  height,
		Payload: payload,
		FeeRate: feeRate,
	}, opts...)
}

// ParsePaymentRequest parses a "boa:" payment request URI.
func ParsePaymentRequest(raw string) (*uri.PaymentRequest, error) {
	req, err := uri.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse payment request: %w", err)
	}
	return req, nil
}

// PayRequest pays every recipient of req. Every payment must specify its
// amount.
func PayRequest(
	req *uri.PaymentRequest,
	owner crypto.KeyPair,
	utxos []utxo.UnspentTxOutput,
	height uint64,
	feeRate uint64,
	opts ...Option,
) (*tx.Transaction, error) {
	params := PaymentParams{
		Owner:   owner,
		UTXOs:   utxos,
		Height:  height,
		Payload: req.Payload,
		FeeRate: feeRate,
	}
	for i, p := range req.Payments {
		if p.Amount == nil {
			return nil, &tx.BuildError{
				Code:    tx.ErrInvalidAmount,
				Message: fmt.Sprintf("payment %d has no amount", i),
			}
		}
		params.Recipients = append(params.Recipients, Recipient{Address: p.Address, Amount: *p.Amount})
	}
	return CreatePayment(params, opts...)
}

// ============================================================================
// Cancellation
// ============================================================================

// CancelTransaction builds a replacement for original that refunds its
// inputs to their owners at a higher fee rate. See roles.Canceller.
//
// Parameters:
//   - original: the pending transaction
//   - utxos: the outputs spent by original
//   - keyPairs: the keys owning those outputs
//   - thresholdPct: fee rate increase in percent; zero means
//     roles.DoubleSpentThresholdPct
//   - opts: logger
//
// Returns an error if:
//   - the replacement cannot be signed
//
// Validation failures are reported through the result code, not the error.
func CancelTransaction(
	original *tx.Transaction,
	utxos []utxo.UnspentTxOutput,
	keyPairs []crypto.KeyPair,
	thresholdPct uint64,
	opts ...Option,
) (roles.CancelResult, error) {
	o := applyOptions(opts)

	cancelOpts := []roles.CancelOption{roles.WithLogger(o.logger)}
	if thresholdPct > 0 {
		cancelOpts = append(cancelOpts, roles.WithThresholdPercent(thresholdPct))
	}

	result, err := roles.NewCanceller(original, utxos, keyPairs, cancelOpts...).Build()
	if err != nil {
		return result, fmt.Errorf("failed to cancel transaction: %w", err)
	}
	return result, nil
}

// ============================================================================
// Multi-party signing
// ============================================================================

// SignOwnedInputs signs the inputs of t spending outputs locked to key and
// returns the signed copy. t is left unchanged.
//
// Parameters:
//   - t: a transaction whose body is final, usually from Builder.Unsigned
//   - key: the secret key of one owner
//   - utxos: the outputs spent by t, used to find what key owns
//
// Returns an error if:
//   - key owns none of the inputs (MISSING_KEY)
//   - signing fails
func SignOwnedInputs(t *tx.Transaction, key crypto.SecretKey, utxos []utxo.UnspentTxOutput) (*tx.Transaction, error) {
	signer := roles.NewSigner(t)
	n, err := signer.SignOwned(key, utxos)
	if err != nil {
		return nil, fmt.Errorf("failed to sign inputs: %w", err)
	}
	if n == 0 {
		return nil, &tx.BuildError{Code: tx.ErrMissingKey, Message: "key owns no input of the transaction"}
	}
	return signer.Finish(), nil
}

// CombineTransactions merges copies of a transaction signed by different
// parties.
func CombineTransactions(txs ...*tx.Transaction) (*tx.Transaction, error) {
	return roles.NewCombiner(txs).Combine()
}

// ============================================================================
// Encoding
// ============================================================================

// ParseTransaction decodes a transaction from its binary wire format.
func ParseTransaction(data []byte) (*tx.Transaction, error) {
	return tx.Deserialize(data)
}

// SerializeTransaction encodes a transaction in its binary wire format.
func SerializeTransaction(t *tx.Transaction) []byte {
	return t.Serialize()
}
