package calculator

import (
	"encoding/json"
	"time"

	"github.com/deppfellow/calculator-api/internal/errs"
	"github.com/deppfellow/calculator-api/internal/lib/utils"
)

// Envelope is the uniform response body of the calculate operation.
//
// Success:
//
//	{ "success": true, "result": 15, "calculation": "10 + 5", "timestamp": "...", "id": null }
//
// Failure:
//
//	{ "success": false, "error": "...", "code": "DIVISION_BY_ZERO", "timestamp": "..." }
type Envelope struct {
	Success     bool     `json:"success"`
	Result      *float64 `json:"result,omitempty"`
	Calculation string   `json:"calculation,omitempty"`
	Error       string   `json:"error,omitempty"`
	Code        string   `json:"code,omitempty"`
	Timestamp   string   `json:"timestamp"`

	// ID is the stored record id. Success bodies always carry the key,
	// null when nothing was persisted.
	ID *string `json:"-"`
}

// MarshalJSON writes "id" on success bodies only.
func (e Envelope) MarshalJSON() ([]byte, error) {
	type wire Envelope
	if !e.Success {
		return json.Marshal(wire(e))
	}
	return json.Marshal(struct {
		wire
		ID *string `json:"id"`
	}{wire(e), e.ID})
}

// WithID returns a copy of the envelope referencing a stored record.
func (e Envelope) WithID(id string) Envelope {
	e.ID = &id
	return e
}

// BuildEnvelope shapes an outcome into the response body and reports the
// status class the transport should use.
func BuildEnvelope(o Outcome, at time.Time) (Envelope, errs.StatusClass) {
	ts := utils.ISOTimestamp(at)

	if o.Success != nil {
		result := o.Success.Result
		return Envelope{
			Success:     true,
			Result:      &result,
			Calculation: o.Success.Calculation(),
			Timestamp:   ts,
		}, errs.ClassOK
	}

	f := o.Failure
	if f == nil {
		f = &Failure{Kind: errs.KindInternalError, Message: "Internal server error"}
	}

	return Envelope{
		Success:   false,
		Error:     f.Message,
		Code:      string(f.Kind),
		Timestamp: ts,
	}, f.Kind.Class()
}
