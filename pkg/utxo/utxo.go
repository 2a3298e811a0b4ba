// Package utxo selects unspent outputs to fund a transaction.
//
// UTXO records come from a node and are read-only here. Selection is
// deterministic: candidates are taken in the order given, so the same set
// and target always produce the same inputs.
package utxo

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/suffix-labs/boa-sdk-go/pkg/crypto"
	"github.com/suffix-labs/boa-sdk-go/pkg/hash"
	"github.com/suffix-labs/boa-sdk-go/pkg/tx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrInsufficientFunds is returned when the eligible outputs cannot cover
// the requested amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// UnspentTxOutput describes a spendable output as reported by a node.
type UnspentTxOutput struct {
	UTXO         hash.Hash     `json:"utxo"`
	Type         tx.OutputType `json:"type"`
	UnlockHeight uint64        `json:"unlock_height,string"`
	Amount       uint64        `json:"amount,string"`
	Height       uint64        `json:"height,string"`
	LockType     tx.LockType   `json:"lock_type"`
	LockBytes    []byte        `json:"lock_bytes"`
}

// Lock returns the spending condition of u.
func (u UnspentTxOutput) Lock() tx.Lock {
	return tx.Lock{Type: u.LockType, Bytes: u.LockBytes}
}

// Owner returns the key of a Key-locked output.
func (u UnspentTxOutput) Owner() (crypto.PublicKey, bool) {
	return u.Lock().PublicKey()
}

// Spendable reports whether u can fund a payment at height: Freeze outputs
// are staked and outputs whose unlock height is in the future are locked.
func (u UnspentTxOutput) Spendable(height uint64) bool {
	return u.Type != tx.OutputFreeze && u.UnlockHeight <= height
}

// ParseList decodes the JSON array returned by a node.
func ParseList(data []byte) ([]UnspentTxOutput, error) {
	var list []UnspentTxOutput
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode UTXO list: %w", err)
	}
	return list, nil
}

// Sum returns the total amount of utxos.
func Sum(utxos []UnspentTxOutput) uint64 {
	var total uint64
	for _, u := range utxos {
		total += u.Amount
	}
	return total
}

// Find returns the entry with the given key.
func Find(utxos []UnspentTxOutput, key hash.Hash) (UnspentTxOutput, bool) {
	for _, u := range utxos {
		if u.UTXO == key {
			return u, true
		}
	}
	return UnspentTxOutput{}, false
}

// Select takes spendable outputs in order until their total reaches
// amount. A zero amount selects nothing.
func Select(utxos []UnspentTxOutput, amount, height uint64) ([]UnspentTxOutput, error) {
	var (
		selected []UnspentTxOutput
		total    uint64
	)

	for _, u := range utxos {
		if total >= amount {
			break
		}
		if !u.Spendable(height) {
			continue
		}
		selected = append(selected, u)
		total += u.Amount
	}

	if total < amount {
		return nil, fmt.Errorf("%w: need %d, eligible total %d at height %d",
			ErrInsufficientFunds, amount, total, height)
	}
	return selected, nil
}
