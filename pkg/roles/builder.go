package roles

import (
	"fmt"
	"math/bits"

	"github.com/suffix-labs/boa-sdk-go/pkg/crypto"
	"github.com/suffix-labs/boa-sdk-go/pkg/fee"
	"github.com/suffix-labs/boa-sdk-go/pkg/hash"
	"github.com/suffix-labs/boa-sdk-go/pkg/tx"
	"github.com/suffix-labs/boa-sdk-go/pkg/utxo"
)

// Builder assembles and signs a transaction.
//
// A Builder starts Open: inputs, outputs and a payload may be added. Sign
// or Unsigned moves it to Signed, after which every call fails with
// ALREADY_SIGNED.
// A Builder is single-use and not safe for concurrent use.
//
// Typical use:
//
//	txn, err := roles.NewBuilder(owner).
//		AddInput(u.UTXO, u.Amount, nil).
//		AddOutput(dest, 20_000_000).
//		Sign(tx.Payment)
//
// The chained form records the first error and returns it from Sign.
type Builder struct {
	owner   crypto.KeyPair
	inputs  []builderInput
	outputs []builderOutput
	payload []byte

	sumInputs  uint64
	sumOutputs uint64

	signed bool
	err    error
}

type builderInput struct {
	utxo   hash.Hash
	amount uint64
	key    *crypto.SecretKey
}

type builderOutput struct {
	address crypto.PublicKey
	amount  uint64
}

// NewBuilder returns an open Builder. The owner receives the change and
// signs every input added without its own key.
func NewBuilder(owner crypto.KeyPair) *Builder {
	return &Builder{owner: owner}
}

// Err returns the first error recorded by a chained call.
func (b *Builder) Err() error {
	return b.err
}

// AddInput spends the output utxoKey holding amount. key signs the input;
// nil means the owner's key.
func (b *Builder) AddInput(utxoKey hash.Hash, amount uint64, key *crypto.SecretKey) *Builder {
	if !b.open() {
		return b
	}

	sum, carry := bits.Add64(b.sumInputs, amount, 0)
	if carry != 0 {
		b.err = &tx.BuildError{Code: tx.ErrInvalidAmount, Message: "input total overflows"}
		return b
	}

	b.inputs = append(b.inputs, builderInput{utxo: utxoKey, amount: amount, key: key})
	b.sumInputs = sum
	return b
}

// AddUTXOs adds every entry of utxos, signed by the owner.
func (b *Builder) AddUTXOs(utxos []utxo.UnspentTxOutput) *Builder {
	for _, u := range utxos {
		b.AddInput(u.UTXO, u.Amount, nil)
	}
	return b
}

// AddOutput pays amount to address. The amount must be positive and the
// outputs may not exceed the inputs recorded so far.
func (b *Builder) AddOutput(address crypto.PublicKey, amount uint64) *Builder {
	if !b.open() {
		return b
	}

	if amount == 0 {
		b.err = &tx.BuildError{
			Code:    tx.ErrInvalidAmount,
			Message: fmt.Sprintf("positive amount expected, not %d", amount),
		}
		return b
	}

	sum, carry := bits.Add64(b.sumOutputs, amount, 0)
	if carry != 0 || sum > b.sumInputs {
		b.err = &tx.BuildError{
			Code:    tx.ErrInsufficientAmount,
			Message: fmt.Sprintf("insufficient amount: %d requested, %d available", amount, b.sumInputs-b.sumOutputs),
		}
		return b
	}

	b.outputs = append(b.outputs, builderOutput{address: address, amount: amount})
	b.sumOutputs = sum
	return b
}

// AssignPayload attaches data to the transaction.
func (b *Builder) AssignPayload(data []byte) *Builder {
	if !b.open() {
		return b
	}

	if err := fee.CheckSize(len(data)); err != nil {
		b.err = &tx.BuildError{Code: tx.ErrPayloadTooLarge, Message: "payload rejected", Cause: err}
		return b
	}

	b.payload = append([]byte(nil), data...)
	return b
}

// SignOption adjusts how Sign finalizes the transaction.
type SignOption func(*signConfig)

type signConfig struct {
	txFee      uint64
	payloadFee uint64
	lockHeight uint64
	unlockAge  uint32
}

// WithTxFee reserves fee for the transaction itself.
func WithTxFee(amount uint64) SignOption {
	return func(c *signConfig) { c.txFee = amount }
}

// WithPayloadFee reserves fee for the payload.
func WithPayloadFee(amount uint64) SignOption {
	return func(c *signConfig) { c.payloadFee = amount }
}

// WithLockHeight sets the height before which the transaction is invalid.
func WithLockHeight(height uint64) SignOption {
	return func(c *signConfig) { c.lockHeight = height }
}

// WithUnlockAge sets the unlock age of every input.
func WithUnlockAge(age uint32) SignOption {
	return func(c *signConfig) { c.unlockAge = age }
}

// Sign finalizes the transaction.
//
// Outputs get the output type matching txType. Whatever the inputs hold
// beyond outputs and fees is paid back to the owner as a Payment output.
// Every input is then signed over the canonical hash of the body.
//
// Parameters:
//   - txType: Payment, Freeze or Coinbase; selects the type of the outputs
//   - opts: fees, lock height and unlock age of the transaction
//
// Returns an error if:
//   - a chained call failed earlier (its error is returned as is)
//   - the builder was already used (ALREADY_SIGNED)
//   - no input was added (INVALID_INPUT)
//   - the inputs cannot cover outputs and fees (INSUFFICIENT_AMOUNT)
//   - an input has no key and the owner has none either (MISSING_KEY)
func (b *Builder) Sign(txType tx.TxType, opts ...SignOption) (*tx.Transaction, error) {
	return b.finish(txType, opts, true)
}

// Unsigned finalizes the transaction like Sign but leaves every unlock
// empty, for inputs owned by several parties. Each party signs its inputs
// with a Signer and a Combiner merges the results.
func (b *Builder) Unsigned(txType tx.TxType, opts ...SignOption) (*tx.Transaction, error) {
	return b.finish(txType, opts, false)
}

func (b *Builder) finish(txType tx.TxType, opts []SignOption, sign bool) (*tx.Transaction, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.signed {
		return nil, alreadySigned()
	}

	var cfg signConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(b.inputs) == 0 {
		return nil, &tx.BuildError{Code: tx.ErrInvalidInput, Message: "no input to spend"}
	}

	fees, carry := bits.Add64(cfg.txFee, cfg.payloadFee, 0)
	spent, carry2 := bits.Add64(b.sumOutputs, fees, 0)
	if carry != 0 || carry2 != 0 || spent > b.sumInputs {
		return nil, &tx.BuildError{
			Code: tx.ErrInsufficientAmount,
			Message: fmt.Sprintf("inputs %d cannot cover outputs %d and fees %d",
				b.sumInputs, b.sumOutputs, fees),
		}
	}
	change := b.sumInputs - spent

	var keys []crypto.SecretKey
	if sign {
		keys = make([]crypto.SecretKey, len(b.inputs))
		for i, in := range b.inputs {
			switch {
			case in.key != nil && in.key.IsValid():
				keys[i] = *in.key
			case b.owner.Secret.IsValid():
				keys[i] = b.owner.Secret
			default:
				return nil, &tx.BuildError{
					Code:    tx.ErrMissingKey,
					Message: fmt.Sprintf("no key to sign input %d (%s)", i, in.utxo),
				}
			}
		}
	}

	txn := &tx.Transaction{
		Type:       txType,
		Inputs:     make([]tx.TxInput, 0, len(b.inputs)),
		Outputs:    make([]tx.TxOutput, 0, len(b.outputs)+1),
		Payload:    b.payload,
		LockHeight: cfg.lockHeight,
	}
	for _, in := range b.inputs {
		txn.Inputs = append(txn.Inputs, tx.NewTxInput(in.utxo, cfg.unlockAge))
	}
	for _, out := range b.outputs {
		txn.Outputs = append(txn.Outputs, tx.NewTxOutput(tx.OutputTypeOf(txType), out.amount, out.address))
	}
	if change > 0 {
		txn.Outputs = append(txn.Outputs, tx.NewTxOutput(tx.OutputPayment, change, b.owner.Address))
	}

	if sign {
		signer := NewSigner(txn)
		for i := range txn.Inputs {
			if err := signer.SignInput(i, keys[i]); err != nil {
				return nil, err
			}
		}
		txn = signer.Finish()
	}

	b.signed = true
	return txn, nil
}

func (b *Builder) open() bool {
	if b.err != nil {
		return false
	}
	if b.signed {
		b.err = alreadySigned()
		return false
	}
	return true
}

func alreadySigned() error {
	return &tx.BuildError{Code: tx.ErrAlreadySigned, Message: "builder was already used to sign a transaction"}
}
