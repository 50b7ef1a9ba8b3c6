package calculator

import (
	"math"

	"github.com/deppfellow/calculator-api/internal/errs"
)

// Failure is a rejected calculation: the failure kind plus a localized,
// human-readable message.
type Failure struct {
	Kind    errs.Kind
	Field   string
	Message string
}

func newFailure(loc Locale, kind errs.Kind, field string, op OperationKind) *Failure {
	return &Failure{
		Kind:    kind,
		Field:   field,
		Message: message(loc, kind, field, op),
	}
}

// Error lets a Failure travel as a plain error.
func (f *Failure) Error() string {
	return f.Message
}

// HTTPError converts the failure into the API error type.
func (f *Failure) HTTPError() *errs.HTTPError {
	e := errs.New(f.Kind, f.Message)
	if f.Field != "" && f.Kind.Class() == errs.ClassBadRequest {
		e.Errors = []errs.FieldError{{Field: f.Field, Error: f.Message}}
	}
	return e
}

// Success is an evaluated calculation.
type Success struct {
	Request Request
	Result  float64
	Symbol  string
}

// Calculation renders the human-readable form, e.g. "10 + 5".
func (s Success) Calculation() string {
	return FormatOperand(s.Request.First) + " " + s.Symbol + " " + FormatOperand(s.Request.Second)
}

// Outcome is exactly one of Success or Failure.
type Outcome struct {
	Success *Success
	Failure *Failure
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Success != nil
}

func failed(f *Failure) Outcome {
	return Outcome{Failure: f}
}

// Dispatch evaluates a validated request.
//
// Guards run before the operation (divide and modulo by zero), and any
// non-finite result (overflowing power, 0^-1, ...) is reported as
// NonFiniteResult instead of leaking Inf or NaN into the response.
func Dispatch(req Request, loc Locale) Outcome {
	op, ok := Lookup(req.Kind)
	if !ok {
		return failed(newFailure(loc, errs.KindUnknownOperation, FieldOperation, req.Kind))
	}

	if kind := op.Check(req.First, req.Second); kind != "" {
		return failed(newFailure(loc, kind, "", req.Kind))
	}

	result := op.Apply(req.First, req.Second)
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return failed(newFailure(loc, errs.KindNonFiniteResult, "", req.Kind))
	}

	// -0 renders as 0 everywhere else, keep the result consistent.
	if result == 0 {
		result = 0
	}

	return Outcome{Success: &Success{Request: req, Result: result, Symbol: op.Symbol}}
}

// Evaluate runs the whole pipeline (Validate then Dispatch) on a raw payload.
func Evaluate(in Input, loc Locale) Outcome {
	req, failure := Validate(in, loc)
	if failure != nil {
		return failed(failure)
	}
	return Dispatch(req, loc)
}
