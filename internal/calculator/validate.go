package calculator

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/deppfellow/calculator-api/internal/errs"
)

// Field names as they appear in the request body.
const (
	FieldNum1      = "num1"
	FieldNum2      = "num2"
	FieldOperation = "operation"
)

// Input is the untyped calculate payload.
//
// Each field keeps its raw JSON so the validator can tell "absent" from
// "present but not a number". A nil or `null` field counts as absent.
type Input struct {
	Num1      json.RawMessage `json:"num1"`
	Num2      json.RawMessage `json:"num2"`
	Operation json.RawMessage `json:"operation"`
}

// InputFromStrings builds an Input from plain strings, e.g. CLI arguments.
// Operands are encoded as JSON strings and go through numeric parsing.
func InputFromStrings(num1, operation, num2 string) Input {
	enc := func(s string) json.RawMessage {
		b, _ := json.Marshal(s)
		return b
	}
	return Input{Num1: enc(num1), Num2: enc(num2), Operation: enc(operation)}
}

// Request is a validated calculation: two finite operands and a registered kind.
type Request struct {
	First  float64
	Second float64
	Kind   OperationKind
}

// Validate checks the payload field by field (num1, num2, operation) and
// stops at the first failure.
//
//   - absent field                         -> MissingField
//   - operand not parseable as finite real -> InvalidNumber
//   - operation outside the registry       -> UnknownOperation
func Validate(in Input, loc Locale) (Request, *Failure) {
	first, kind := parseOperand(in.Num1)
	if kind != "" {
		return Request{}, newFailure(loc, kind, FieldNum1, "")
	}

	second, kind := parseOperand(in.Num2)
	if kind != "" {
		return Request{}, newFailure(loc, kind, FieldNum2, "")
	}

	op, kind := parseOperation(in.Operation)
	if kind != "" {
		return Request{}, newFailure(loc, kind, FieldOperation, op)
	}

	return Request{First: first, Second: second, Kind: op}, nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// parseOperand accepts JSON numbers and numeric strings.
func parseOperand(raw json.RawMessage) (float64, errs.Kind) {
	if isAbsent(raw) {
		return 0, errs.KindMissingField
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return 0, errs.KindInvalidNumber
	}

	var text string
	switch t := v.(type) {
	case json.Number:
		text = t.String()
	case string:
		text = strings.TrimSpace(t)
		if !looksDecimal(text) {
			return 0, errs.KindInvalidNumber
		}
	default:
		return 0, errs.KindInvalidNumber
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errs.KindInvalidNumber
	}
	return f, ""
}

// looksDecimal rejects spellings ParseFloat accepts but a decimal API should
// not: hex floats, "Inf"/"NaN", underscores and the empty string.
func looksDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.', r == '+', r == '-', r == 'e', r == 'E':
		default:
			return false
		}
	}
	return true
}

func parseOperation(raw json.RawMessage) (OperationKind, errs.Kind) {
	if isAbsent(raw) {
		return "", errs.KindMissingField
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return OperationKind(strings.TrimSpace(string(raw))), errs.KindUnknownOperation
	}
	if s == "" {
		return "", errs.KindMissingField
	}

	kind := OperationKind(s)
	if _, ok := Lookup(kind); !ok {
		return kind, errs.KindUnknownOperation
	}
	return kind, ""
}
