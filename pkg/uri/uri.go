// Package uri implements the "boa:" payment request URI.
//
// A payment request encodes recipients, amounts and an optional data
// payload in a URI that can be shared as a link or QR code.
//
// URI format:
//
//	boa:<address>?amount=<base units>&payload=<hex>&label=<label>&message=<message>
//
// Multiple recipients use indexed parameters; index 0 may omit the suffix:
//
//	boa:?address.0=<addr0>&amount.0=<amt0>&address.1=<addr1>&amount.1=<amt1>&payload=<hex>
//
// Amounts are decimal integers in base units. The payload belongs to the
// whole request and is never indexed.
package uri

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/suffix-labs/boa-sdk-go/pkg/crypto"
	"github.com/suffix-labs/boa-sdk-go/pkg/fee"
)

// Scheme prefixes every payment request.
const Scheme = "boa:"

// maxIndex bounds the recipient index of indexed parameters.
const maxIndex = 9999

// PaymentRequest is a parsed payment request.
type PaymentRequest struct {
	Payments []Payment // Recipients, in index order
	Payload  []byte    // Optional data stored with the transaction
}

// Payment is one recipient of a request.
type Payment struct {
	Address crypto.PublicKey
	Amount  *uint64 // nil = user specifies
	Label   *string
	Message *string
}

// Parse parses a payment request URI, with or without the "boa:" prefix.
//
// Example:
//
//	req, err := uri.Parse("boa:boa1xr…?amount=1000000&payload=0x6869")
func Parse(raw string) (*PaymentRequest, error) {
	raw = strings.TrimPrefix(raw, Scheme)

	var baseAddress, query string
	if before, after, found := strings.Cut(raw, "?"); found {
		baseAddress, query = before, after
	} else if strings.Contains(raw, "=") {
		query = raw
	} else {
		baseAddress = raw
	}

	params, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query: %w", err)
	}

	req := &PaymentRequest{}

	if payloadStr := params.Get("payload"); payloadStr != "" {
		req.Payload, err = parsePayload(payloadStr)
		if err != nil {
			return nil, err
		}
	}

	if hasIndexedParams(params) {
		if baseAddress != "" {
			return nil, fmt.Errorf("base address cannot be combined with indexed parameters")
		}
		req.Payments, err = parseIndexedPayments(params)
	} else {
		var payment Payment
		payment, err = parseSinglePayment(baseAddress, params)
		req.Payments = []Payment{payment}
	}
	if err != nil {
		return nil, err
	}

	return req, nil
}

func parseSinglePayment(address string, params url.Values) (Payment, error) {
	if addrParam := params.Get("address"); addrParam != "" {
		address = addrParam
	}
	if address == "" {
		return Payment{}, fmt.Errorf("payment request has no address")
	}
	return parsePayment(address,
		params.Get("amount"), params.Get("label"), params.Get("message"))
}

func parseIndexedPayments(params url.Values) ([]Payment, error) {
	indices := make(map[int]bool)
	for key := range params {
		if idx := extractIndex(key); idx >= 0 {
			indices[idx] = true
		}
	}

	ordered := make([]int, 0, len(indices))
	for idx := range indices {
		ordered = append(ordered, idx)
	}
	sort.Ints(ordered)

	payments := make([]Payment, 0, len(ordered))
	for _, idx := range ordered {
		address := getIndexedParam(params, "address", idx)
		if address == "" {
			return nil, fmt.Errorf("payment %d missing address", idx)
		}

		payment, err := parsePayment(address,
			getIndexedParam(params, "amount", idx),
			getIndexedParam(params, "label", idx),
			getIndexedParam(params, "message", idx))
		if err != nil {
			return nil, fmt.Errorf("payment %d: %w", idx, err)
		}
		payments = append(payments, payment)
	}

	return payments, nil
}

func parsePayment(address, amount, label, message string) (Payment, error) {
	pk, err := crypto.PublicKeyFromString(address)
	if err != nil {
		return Payment{}, fmt.Errorf("invalid address: %w", err)
	}

	payment := Payment{Address: pk}
	if amount != "" {
		value, err := parseAmount(amount)
		if err != nil {
			return payment, fmt.Errorf("invalid amount: %w", err)
		}
		payment.Amount = &value
	}
	if label != "" {
		payment.Label = &label
	}
	if message != "" {
		payment.Message = &message
	}
	return payment, nil
}

// hasIndexedParams reports whether any parameter has a ".N" suffix.
func hasIndexedParams(params url.Values) bool {
	for key := range params {
		if extractIndex(key) >= 0 {
			return true
		}
	}
	return false
}

// extractIndex returns N for "name.N", or -1.
func extractIndex(paramName string) int {
	_, suffix, found := strings.Cut(paramName, ".")
	if !found {
		return -1
	}

	idx, err := strconv.Atoi(suffix)
	if err != nil || idx < 0 || idx > maxIndex {
		return -1
	}
	return idx
}

// getIndexedParam looks up "name.N"; index 0 also accepts plain "name".
func getIndexedParam(params url.Values, name string, index int) string {
	if index == 0 {
		if val := params.Get(name); val != "" {
			return val
		}
	}
	return params.Get(fmt.Sprintf("%s.%d", name, index))
}

func parseAmount(amountStr string) (uint64, error) {
	amount, err := strconv.ParseUint(amountStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not a valid amount: %w", err)
	}
	if amount == 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return amount, nil
}

func parsePayload(payloadStr string) ([]byte, error) {
	data, err := hex.DecodeString(strings.TrimPrefix(payloadStr, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	if err := fee.CheckSize(len(data)); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return data, nil
}

// Total returns the sum of the specified amounts.
func (req *PaymentRequest) Total() uint64 {
	var total uint64
	for _, p := range req.Payments {
		if p.Amount != nil {
			total += *p.Amount
		}
	}
	return total
}

// Encode returns the URI form of req; it is the inverse of Parse.
func (req *PaymentRequest) Encode() string {
	if len(req.Payments) == 1 {
		return encodeSinglePayment(req.Payments[0], req.Payload)
	}
	return encodeMultiplePayments(req.Payments, req.Payload)
}

func encodeSinglePayment(p Payment, payload []byte) string {
	uri := Scheme + p.Address.String()

	params := url.Values{}
	addPaymentParams(params, p, "")
	addPayload(params, payload)

	if len(params) > 0 {
		uri += "?" + params.Encode()
	}
	return uri
}

func encodeMultiplePayments(payments []Payment, payload []byte) string {
	params := url.Values{}
	for i, p := range payments {
		suffix := fmt.Sprintf(".%d", i)
		params.Add("address"+suffix, p.Address.String())
		addPaymentParams(params, p, suffix)
	}
	addPayload(params, payload)

	if len(params) == 0 {
		return Scheme
	}
	return Scheme + "?" + params.Encode()
}

func addPaymentParams(params url.Values, p Payment, suffix string) {
	if p.Amount != nil {
		params.Add("amount"+suffix, strconv.FormatUint(*p.Amount, 10))
	}
	if p.Label != nil {
		params.Add("label"+suffix, *p.Label)
	}
	if p.Message != nil {
		params.Add("message"+suffix, *p.Message)
	}
}

func addPayload(params url.Values, payload []byte) {
	if len(payload) > 0 {
		params.Add("payload", "0x"+hex.EncodeToString(payload))
	}
}
