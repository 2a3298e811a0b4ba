package utxo

import (
	"github.com/suffix-labs/boa-sdk-go/pkg/hash"
)

// Manager hands out UTXOs from a fixed set, never the same one twice.
//
// A Manager is not safe for concurrent use.
type Manager struct {
	items []UnspentTxOutput
	used  map[hash.Hash]bool
}

// NewManager returns a Manager over utxos. Duplicate keys are dropped.
func NewManager(utxos []UnspentTxOutput) *Manager {
	m := &Manager{used: make(map[hash.Hash]bool)}
	m.Add(utxos...)
	return m
}

// Add appends utxos that are not already known.
func (m *Manager) Add(utxos ...UnspentTxOutput) {
	for _, u := range utxos {
		if _, ok := Find(m.items, u.UTXO); ok {
			continue
		}
		m.items = append(m.items, u)
	}
}

// Select picks unused outputs covering amount at height and marks them
// used. Nothing is marked when selection fails.
func (m *Manager) Select(amount, height uint64) ([]UnspentTxOutput, error) {
	selected, err := Select(m.Available(), amount, height)
	if err != nil {
		return nil, err
	}
	for _, u := range selected {
		m.used[u.UTXO] = true
	}
	return selected, nil
}

// Release makes previously selected outputs available again.
func (m *Manager) Release(utxos ...UnspentTxOutput) {
	for _, u := range utxos {
		delete(m.used, u.UTXO)
	}
}

// Available returns the outputs not yet handed out, in order.
func (m *Manager) Available() []UnspentTxOutput {
	out := make([]UnspentTxOutput, 0, len(m.items)-len(m.used))
	for _, u := range m.items {
		if !m.used[u.UTXO] {
			out = append(out, u)
		}
	}
	return out
}

// Balance returns the total of unused outputs spendable at height.
func (m *Manager) Balance(height uint64) uint64 {
	var total uint64
	for _, u := range m.Available() {
		if u.Spendable(height) {
			total += u.Amount
		}
	}
	return total
}
