package roles

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/rs/zerolog"

	"github.com/suffix-labs/boa-sdk-go/pkg/crypto"
	"github.com/suffix-labs/boa-sdk-go/pkg/fee"
	"github.com/suffix-labs/boa-sdk-go/pkg/hash"
	"github.com/suffix-labs/boa-sdk-go/pkg/tx"
	"github.com/suffix-labs/boa-sdk-go/pkg/utxo"
)

// DoubleSpentThresholdPct is how much the fee rate of a cancellation
// exceeds the rate of the transaction it replaces, in percent.
const DoubleSpentThresholdPct = 20

// CancelResultCode is the outcome of a cancellation attempt.
type CancelResultCode int

const (
	CancelSuccess CancelResultCode = iota
	CancelInvalidTransaction
	CancelUnsupportedUnfreezing
	CancelNotFoundUTXO
	CancelUnsupportedLockType
	CancelNotFoundKey
	CancelNotEnoughFee
)

func (c CancelResultCode) String() string {
	switch c {
	case CancelSuccess:
		return "Success"
	case CancelInvalidTransaction:
		return "InvalidTransaction"
	case CancelUnsupportedUnfreezing:
		return "UnsupportedUnfreezing"
	case CancelNotFoundUTXO:
		return "NotFoundUTXO"
	case CancelUnsupportedLockType:
		return "UnsupportedLockType"
	case CancelNotFoundKey:
		return "NotFoundKey"
	case CancelNotEnoughFee:
		return "NotEnoughFee"
	default:
		return fmt.Sprintf("CancelResultCode(%d)", int(c))
	}
}

// CancelResult carries the replacement transaction when Code is
// CancelSuccess.
type CancelResult struct {
	Code CancelResultCode
	Tx   *tx.Transaction
}

// ErrCancellerUsed is returned by a second call to Build.
var ErrCancellerUsed = errors.New("canceller already used")

// Canceller builds a transaction that spends the inputs of a pending
// transaction back to their owners at a higher fee rate, so that it
// replaces the original.
//
// The replacement carries no payload: its size is estimated with an empty
// payload and its payload fee is zero.
type Canceller struct {
	tx        *tx.Transaction
	utxos     []utxo.UnspentTxOutput
	keyPairs  []crypto.KeyPair
	threshold uint64
	logger    zerolog.Logger
	used      bool
}

// CancelOption configures a Canceller.
type CancelOption func(*Canceller)

// WithThresholdPercent overrides DoubleSpentThresholdPct.
func WithThresholdPercent(pct uint64) CancelOption {
	return func(c *Canceller) { c.threshold = pct }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger zerolog.Logger) CancelOption {
	return func(c *Canceller) { c.logger = logger }
}

// NewCanceller prepares the cancellation of original.
//
// Parameters:
//   - original: the pending transaction to replace
//   - utxos: the outputs spent by original, as reported by a node
//   - keyPairs: the keys owning those outputs; the first one also owns
//     the replacement's change, which is always zero
//   - opts: threshold percentage and logger
func NewCanceller(
	original *tx.Transaction,
	utxos []utxo.UnspentTxOutput,
	keyPairs []crypto.KeyPair,
	opts ...CancelOption,
) *Canceller {
	c := &Canceller{
		tx:        original,
		utxos:     utxos,
		keyPairs:  keyPairs,
		threshold: DoubleSpentThresholdPct,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// spend pairs an input of the original with what is needed to refund it.
type spend struct {
	utxo utxo.UnspentTxOutput
	key  crypto.KeyPair
}

// cancelPlan is the fee arithmetic of a cancellation.
type cancelPlan struct {
	spends     []spend
	totalFee   uint64
	payloadFee uint64
	share      uint64
	remainder  uint64
}

// Build validates the original transaction and, on success, returns the
// signed replacement.
//
// Expected failures are reported through the result code:
//   - CancelInvalidTransaction: no input, or outputs above inputs
//   - CancelNotFoundUTXO: an input spends an output missing from utxos
//   - CancelUnsupportedLockType: an input is not locked to a plain key
//   - CancelNotFoundKey: no key pair owns an input
//   - CancelUnsupportedUnfreezing: an input spends a Freeze output
//   - CancelNotEnoughFee: the inputs cannot pay the inflated fee
//
// Returns an error if:
//   - Build was already called (ErrCancellerUsed)
//   - signing the replacement fails
func (c *Canceller) Build() (CancelResult, error) {
	if c.used {
		return CancelResult{}, ErrCancellerUsed
	}
	c.used = true

	plan, code := c.plan()
	if code != CancelSuccess {
		c.logger.Debug().Stringer("code", code).Msg("transaction cannot be cancelled")
		return CancelResult{Code: code}, nil
	}

	last := len(plan.spends) - 1
	builder := NewBuilder(c.keyPairs[0])
	for i, s := range plan.spends {
		amount := s.utxo.Amount - plan.share
		if i == last {
			amount -= plan.remainder
		}

		secret := s.key.Secret
		builder.AddInput(s.utxo.UTXO, s.utxo.Amount, &secret).
			AddOutput(s.key.Address, amount)
	}

	replacement, err := builder.Sign(
		tx.Payment,
		WithTxFee(plan.totalFee-plan.payloadFee),
		WithPayloadFee(plan.payloadFee),
		WithLockHeight(c.tx.LockHeight),
		WithUnlockAge(c.tx.Inputs[0].UnlockAge),
	)
	if err != nil {
		return CancelResult{}, fmt.Errorf("failed to sign cancellation: %w", err)
	}

	c.logger.Debug().
		Stringer("original", c.tx.Hash()).
		Stringer("replacement", replacement.Hash()).
		Msg("cancellation built")

	return CancelResult{Code: CancelSuccess, Tx: replacement}, nil
}

// plan runs the checks in a fixed order and computes the fee split.
func (c *Canceller) plan() (cancelPlan, CancelResultCode) {
	var p cancelPlan

	if c.tx == nil || len(c.tx.Inputs) == 0 {
		return p, CancelInvalidTransaction
	}
	if len(c.keyPairs) == 0 {
		return p, CancelNotFoundKey
	}

	p.spends = make([]spend, 0, len(c.tx.Inputs))
	for _, in := range c.tx.Inputs {
		u, ok := utxo.Find(c.utxos, in.UTXO)
		if !ok {
			return p, CancelNotFoundUTXO
		}
		if u.LockType != tx.LockKey {
			return p, CancelUnsupportedLockType
		}
		owner, ok := u.Owner()
		if !ok {
			return p, CancelUnsupportedLockType
		}
		key, ok := c.findKey(owner)
		if !ok {
			return p, CancelNotFoundKey
		}
		if u.Type == tx.OutputFreeze {
			return p, CancelUnsupportedUnfreezing
		}
		p.spends = append(p.spends, spend{utxo: u, key: key})
	}

	var sumIn uint64
	for _, s := range p.spends {
		var carry uint64
		sumIn, carry = bits.Add64(sumIn, s.utxo.Amount, 0)
		if carry != 0 {
			return p, CancelInvalidTransaction
		}
	}
	sumOut, err := c.tx.SumOutputs()
	if err != nil || sumOut > sumIn {
		return p, CancelInvalidTransaction
	}

	originalFee := sumIn - sumOut
	rate := originalFee / uint64(c.tx.NumberOfBytes())

	factor, carry := bits.Add64(100, c.threshold, 0)
	if carry != 0 {
		return p, CancelNotEnoughFee
	}
	hi, inflated := bits.Mul64(rate, factor)
	if hi != 0 {
		return p, CancelNotEnoughFee
	}
	newRate := inflated / 100

	n := uint64(len(p.spends))
	size := uint64(tx.EstimatedSize(len(p.spends), len(p.spends), 0))
	hi, total := bits.Mul64(newRate, size)
	if hi != 0 {
		return p, CancelNotEnoughFee
	}

	p.totalFee = total
	p.payloadFee = fee.MustPayloadFee(0)
	p.share = total / n
	p.remainder = total - p.share*n

	c.logger.Debug().
		Uint64("original_fee", originalFee).
		Uint64("rate", rate).
		Uint64("new_rate", newRate).
		Uint64("total_fee", total).
		Uint64("share", p.share).
		Uint64("remainder", p.remainder).
		Msg("cancellation fee computed")

	if sumIn < total || sumIn-total < n {
		return p, CancelNotEnoughFee
	}

	// Every refund must stay positive after its share of the fee.
	last := len(p.spends) - 1
	for i, s := range p.spends {
		cost := p.share
		if i == last {
			cost += p.remainder
		}
		if s.utxo.Amount <= cost {
			return p, CancelNotEnoughFee
		}
	}

	return p, CancelSuccess
}

func (c *Canceller) findKey(address crypto.PublicKey) (crypto.KeyPair, bool) {
	for _, kp := range c.keyPairs {
		if kp.Address == address {
			return kp, true
		}
	}
	return crypto.KeyPair{}, false
}

// Addresses lists the owners of the Key-locked entries of utxos, in order,
// so a wallet can look up the key pairs a cancellation needs.
func Addresses(utxos []utxo.UnspentTxOutput) []crypto.PublicKey {
	var out []crypto.PublicKey
	seen := make(map[crypto.PublicKey]bool)
	for _, u := range utxos {
		owner, ok := u.Owner()
		if !ok || seen[owner] {
			continue
		}
		seen[owner] = true
		out = append(out, owner)
	}
	return out
}

// Inputs returns the UTXO keys spent by t.
func Inputs(t *tx.Transaction) []hash.Hash {
	keys := make([]hash.Hash, len(t.Inputs))
	for i, in := range t.Inputs {
		keys[i] = in.UTXO
	}
	return keys
}
