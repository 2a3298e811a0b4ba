package roles

import (
	"bytes"
	"fmt"

	"github.com/suffix-labs/boa-sdk-go/pkg/hash"
	"github.com/suffix-labs/boa-sdk-go/pkg/tx"
)

// Combiner merges copies of one transaction signed by different parties.
//
// Each copy carries the unlocks its signer could produce; the others are
// left empty (all zero). The combined transaction takes, for every input,
// the one non-empty unlock found among the copies.
type Combiner struct {
	txs []*tx.Transaction
}

// NewCombiner creates a Combiner over txs, which must all have the same
// body.
func NewCombiner(txs []*tx.Transaction) *Combiner {
	return &Combiner{txs: txs}
}

// Combine merges the unlocks of every copy.
//
// Returns an error if:
//   - no transaction was given
//   - the copies have different bodies (different hashes)
//   - two copies carry different unlocks for the same input
func (c *Combiner) Combine() (*tx.Transaction, error) {
	if len(c.txs) == 0 {
		return nil, &tx.CombineError{Code: tx.ErrIncompatible, Message: "no transactions to combine"}
	}

	result := c.txs[0].Clone()
	expected := result.Hash()

	for i := 1; i < len(c.txs); i++ {
		if err := mergeInto(result, c.txs[i], expected); err != nil {
			return nil, fmt.Errorf("failed to merge transaction %d: %w", i, err)
		}
	}

	return result, nil
}

func mergeInto(dst, src *tx.Transaction, expected hash.Hash) error {
	if got := src.Hash(); got != expected {
		return &tx.CombineError{Code: tx.ErrIncompatible, Message: fmt.Sprintf("incompatible transactions: %s != %s", got, expected)}
	}

	for i := range dst.Inputs {
		have := dst.Inputs[i].Unlock.Bytes
		add := src.Inputs[i].Unlock.Bytes

		switch {
		case isEmptyUnlock(add):
		case isEmptyUnlock(have):
			dst.Inputs[i].Unlock.Bytes = append([]byte(nil), add...)
		case !bytes.Equal(have, add):
			return &tx.CombineError{Code: tx.ErrConflictingData, Message: fmt.Sprintf("conflicting unlocks for input %d", i)}
		}
	}
	return nil
}

func isEmptyUnlock(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
