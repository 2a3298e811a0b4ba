package tx

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/suffix-labs/boa-sdk-go/pkg/hash"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSON shape exchanged with nodes:
//
//	{
//	  "type": 0,
//	  "inputs": [{"utxo": "0x…", "unlock": {"bytes": [..]}, "unlock_age": 0}],
//	  "outputs": [{"type": 0, "value": "1000", "lock": {"type": 0, "bytes": [..]}}],
//	  "payload": "0x…",
//	  "lock_height": "0"
//	}
//
// Byte buffers of locks and unlocks are arrays of numbers; 64-bit integers
// are decimal strings.

type jsonTransaction struct {
	Type       uint8        `json:"type"`
	Inputs     []jsonInput  `json:"inputs"`
	Outputs    []jsonOutput `json:"outputs"`
	Payload    string       `json:"payload"`
	LockHeight string       `json:"lock_height"`
}

type jsonInput struct {
	UTXO      hash.Hash  `json:"utxo"`
	Unlock    jsonBuffer `json:"unlock"`
	UnlockAge uint32     `json:"unlock_age"`
}

type jsonOutput struct {
	Type  uint8    `json:"type"`
	Value string   `json:"value"`
	Lock  jsonLock `json:"lock"`
}

type jsonLock struct {
	Type  uint8     `json:"type"`
	Bytes byteArray `json:"bytes"`
}

type jsonBuffer struct {
	Bytes byteArray `json:"bytes"`
}

// byteArray marshals as [1, 2, 3] rather than base64.
type byteArray []byte

func (b byteArray) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(b))
	for i, v := range b {
		ints[i] = int(v)
	}
	return json.Marshal(ints)
}

func (b *byteArray) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 0xFF {
			return fmt.Errorf("byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Transaction) MarshalJSON() ([]byte, error) {
	jt := jsonTransaction{
		Type:       uint8(t.Type),
		Inputs:     make([]jsonInput, len(t.Inputs)),
		Outputs:    make([]jsonOutput, len(t.Outputs)),
		LockHeight: strconv.FormatUint(t.LockHeight, 10),
	}
	if len(t.Payload) > 0 {
		jt.Payload = "0x" + hex.EncodeToString(t.Payload)
	}

	for i, in := range t.Inputs {
		jt.Inputs[i] = jsonInput{
			UTXO:      in.UTXO,
			Unlock:    jsonBuffer{Bytes: byteArray(in.Unlock.Bytes)},
			UnlockAge: in.UnlockAge,
		}
	}
	for i, out := range t.Outputs {
		jt.Outputs[i] = jsonOutput{
			Type:  uint8(out.Type),
			Value: strconv.FormatUint(out.Value, 10),
			Lock: jsonLock{
				Type:  uint8(out.Lock.Type),
				Bytes: byteArray(out.Lock.Bytes),
			},
		}
	}

	return json.Marshal(jt)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var jt jsonTransaction
	if err := json.Unmarshal(data, &jt); err != nil {
		return &ParseError{Message: "invalid transaction JSON", Cause: err}
	}

	lockHeight, err := parseDecimal(jt.LockHeight, "lock_height")
	if err != nil {
		return err
	}

	payload, err := parsePayload(jt.Payload)
	if err != nil {
		return err
	}

	decoded := Transaction{
		Type:       TxType(jt.Type),
		Payload:    payload,
		LockHeight: lockHeight,
	}
	for _, in := range jt.Inputs {
		decoded.Inputs = append(decoded.Inputs, TxInput{
			UTXO:      in.UTXO,
			Unlock:    Unlock{Bytes: []byte(in.Unlock.Bytes)},
			UnlockAge: in.UnlockAge,
		})
	}
	for i, out := range jt.Outputs {
		value, err := parseDecimal(out.Value, fmt.Sprintf("outputs[%d].value", i))
		if err != nil {
			return err
		}
		decoded.Outputs = append(decoded.Outputs, TxOutput{
			Type:  OutputType(out.Type),
			Value: value,
			Lock:  Lock{Type: LockType(out.Lock.Type), Bytes: []byte(out.Lock.Bytes)},
		})
	}

	*t = decoded
	return nil
}

// ToJSON returns the JSON form of t.
func (t *Transaction) ToJSON() ([]byte, error) {
	return json.Marshal(t)
}

// FromJSON parses the JSON form of a transaction.
func FromJSON(data []byte) (*Transaction, error) {
	t := &Transaction{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, err
	}
	return t, nil
}

func parseDecimal(s, field string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, &ParseError{Message: "invalid " + field, Cause: err}
	}
	return v, nil
}

func parsePayload(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, &ParseError{Message: "invalid payload", Cause: err}
	}
	return b, nil
}
