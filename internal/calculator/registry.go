// Package calculator is the request pipeline behind the calculate endpoint.
//
// A raw payload flows through three stages:
//
//	Validate  -> Request | Failure      (presence, numeric parsing, operation lookup)
//	Dispatch  -> Outcome                (evaluation + domain failures)
//	BuildEnvelope -> Envelope + class   (uniform response shape)
//
// Everything in this package is pure and synchronous. The operation registry
// is built once at package init and never written afterwards, so it is safe
// to share across concurrent requests without locking.
package calculator

import (
	"math"

	"github.com/deppfellow/calculator-api/internal/errs"
)

// OperationKind identifies one of the registered binary operations.
type OperationKind string

const (
	Add      OperationKind = "add"
	Subtract OperationKind = "subtract"
	Multiply OperationKind = "multiply"
	Divide   OperationKind = "divide"
	Power    OperationKind = "power"
	Modulo   OperationKind = "modulo"
)

// Operation is a registry entry: the function, its display symbol and an
// optional guard evaluated before the function runs.
type Operation struct {
	Kind   OperationKind
	Symbol string

	apply func(a, b float64) float64

	// guard returns a non-empty Kind when the operands must not reach apply.
	guard func(a, b float64) errs.Kind
}

// Apply evaluates the operation without running its guard.
func (o Operation) Apply(a, b float64) float64 {
	return o.apply(a, b)
}

// Check runs the operation's guard. It returns "" when evaluation may proceed.
func (o Operation) Check(a, b float64) errs.Kind {
	if o.guard == nil {
		return ""
	}
	return o.guard(a, b)
}

func zeroDivisor(_, b float64) errs.Kind {
	if b == 0 {
		return errs.KindDivisionByZero
	}
	return ""
}

// kinds keeps registration order for listings and error messages.
var kinds = []OperationKind{Add, Subtract, Multiply, Divide, Power, Modulo}

var registry = map[OperationKind]Operation{
	Add: {
		Kind:   Add,
		Symbol: "+",
		apply:  func(a, b float64) float64 { return a + b },
	},
	Subtract: {
		Kind:   Subtract,
		Symbol: "-",
		apply:  func(a, b float64) float64 { return a - b },
	},
	Multiply: {
		Kind:   Multiply,
		Symbol: "×",
		apply:  func(a, b float64) float64 { return a * b },
	},
	Divide: {
		Kind:   Divide,
		Symbol: "÷",
		apply:  func(a, b float64) float64 { return a / b },
		guard:  zeroDivisor,
	},
	Power: {
		Kind:   Power,
		Symbol: "^",
		apply:  math.Pow,
	},
	Modulo: {
		Kind:   Modulo,
		Symbol: "%",
		// math.Mod keeps the sign of the dividend.
		apply: math.Mod,
		guard: zeroDivisor,
	},
}

// Lookup returns the registered operation for kind.
func Lookup(kind OperationKind) (Operation, bool) {
	op, ok := registry[kind]
	return op, ok
}

// Kinds lists every registered operation in registration order.
func Kinds() []OperationKind {
	out := make([]OperationKind, len(kinds))
	copy(out, kinds)
	return out
}
