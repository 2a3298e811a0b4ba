package roles

import (
	"fmt"

	"github.com/suffix-labs/boa-sdk-go/pkg/crypto"
	"github.com/suffix-labs/boa-sdk-go/pkg/hash"
	"github.com/suffix-labs/boa-sdk-go/pkg/tx"
	"github.com/suffix-labs/boa-sdk-go/pkg/utxo"
)

// Signer attaches signatures to the inputs of a transaction whose body is
// final.
//
// Every signature covers the canonical hash of the body, which excludes the
// unlocks, so inputs can be signed in any order and by different parties.
// The Combiner merges transactions signed separately.
type Signer struct {
	tx        *tx.Transaction
	challenge hash.Hash
}

// NewSigner creates a Signer working on a copy of t.
func NewSigner(t *tx.Transaction) *Signer {
	return &Signer{tx: t.Clone(), challenge: t.Hash()}
}

// SignInput signs input i with key.
func (s *Signer) SignInput(i int, key crypto.SecretKey) error {
	if i < 0 || i >= len(s.tx.Inputs) {
		return &tx.BuildError{
			Code:    tx.ErrInvalidInput,
			Message: fmt.Sprintf("input index %d out of bounds (have %d inputs)", i, len(s.tx.Inputs)),
		}
	}

	sig, err := key.Sign(s.challenge)
	if err != nil {
		return &tx.BuildError{
			Code:    tx.ErrMissingKey,
			Message: fmt.Sprintf("failed to sign input %d", i),
			Cause:   err,
		}
	}

	s.tx.Inputs[i].Unlock = tx.UnlockFromSignature(sig)
	return nil
}

// SignOwned signs every input spending an output locked to key's address
// and returns how many were signed.
func (s *Signer) SignOwned(key crypto.SecretKey, utxos []utxo.UnspentTxOutput) (int, error) {
	address := key.PublicKey()

	signed := 0
	for i, in := range s.tx.Inputs {
		u, ok := utxo.Find(utxos, in.UTXO)
		if !ok {
			continue
		}
		if owner, ok := u.Owner(); !ok || owner != address {
			continue
		}
		if err := s.SignInput(i, key); err != nil {
			return signed, err
		}
		signed++
	}
	return signed, nil
}

// Finish returns the transaction with the signatures added so far.
func (s *Signer) Finish() *tx.Transaction {
	return s.tx
}
