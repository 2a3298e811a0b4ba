// Package fee implements the data payload fee curve.
//
// Storing arbitrary data in a transaction costs a fee that grows
// exponentially with the payload size:
//
//	fee(size) = round((e^(size / TxPayloadFeeFactor) − 1) × 100) × 10_000_000 / 100
//
// The fee is defined for 0 ≤ size ≤ TxPayloadMaxSize. Both constants are
// protocol parameters.
package fee

import (
	"errors"
	"fmt"
	"math"
)

// Protocol parameters.
const (
	// TxPayloadMaxSize is the maximum payload size in bytes.
	TxPayloadMaxSize = 1024

	// TxPayloadFeeFactor scales the exponent of the curve.
	TxPayloadFeeFactor = 200

	// CommonsBudgetAddress receives payload fees.
	CommonsBudgetAddress = "boa1xrzwvvw6l6d9k84ansqgs9yrtsetpv44wfn8zm9a7lehuej3ssskxth867s"
)

const (
	decimal = 100
	unit    = 10_000_000
)

// ErrSizeOutOfRange is returned for sizes outside [0, TxPayloadMaxSize].
var ErrSizeOutOfRange = errors.New("payload size out of range")

// PayloadFee returns the fee for storing size bytes of payload.
//
// The exponential is evaluated in float64, which is exact enough at this
// range: the rounded value is at most round((e^5.12 − 1) × 100) = 16634, and
// the scaling to base units is done on integers.
func PayloadFee(size int) (uint64, error) {
	if err := CheckSize(size); err != nil {
		return 0, err
	}

	rounded := math.Round((math.Exp(float64(size)/TxPayloadFeeFactor) - 1.0) * decimal)
	return uint64(rounded) * unit / decimal, nil
}

// MustPayloadFee is like PayloadFee but panics when size is out of range.
func MustPayloadFee(size int) uint64 {
	f, err := PayloadFee(size)
	if err != nil {
		panic(err)
	}
	return f
}

// CheckSize reports whether size is an acceptable payload size.
func CheckSize(size int) error {
	if size < 0 {
		return fmt.Errorf("%w: data size cannot be negative (%d)", ErrSizeOutOfRange, size)
	}
	if size > TxPayloadMaxSize {
		return fmt.Errorf("%w: data size %d exceeds maximum %d",
			ErrSizeOutOfRange, size, TxPayloadMaxSize)
	}
	return nil
}
