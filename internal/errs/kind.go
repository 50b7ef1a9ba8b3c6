package errs

import (
	"errors"
	"net/http"
)

// Kind names one failure category of the API.
//
// The value doubles as the machine-readable `code` field of the error
// envelope, so it is spelled UPPER_CASE_WITH_UNDERSCORES.
type Kind string

const (
	// Validation failures of the calculator request.
	KindMissingField     Kind = "MISSING_FIELD"
	KindInvalidNumber    Kind = "INVALID_NUMBER"
	KindUnknownOperation Kind = "UNKNOWN_OPERATION"

	// Domain failures raised while evaluating an operation.
	KindDivisionByZero  Kind = "DIVISION_BY_ZERO"
	KindNonFiniteResult Kind = "NON_FINITE_RESULT"

	// Generic request failures (bad JSON, failed struct validation).
	KindBadRequest Kind = "BAD_REQUEST"

	// Collaborator failures.
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindConflict           Kind = "CONFLICT"
	KindNotFound           Kind = "NOT_FOUND"
	KindTooManyRequests    Kind = "TOO_MANY_REQUESTS"
	KindServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
	KindInternalError      Kind = "INTERNAL_SERVER_ERROR"
)

// StatusClass is the transport-independent outcome class of a request.
//
// The calculator core reasons in classes; only the HTTP edge turns them into
// status codes (see HTTPStatus).
type StatusClass int

const (
	ClassOK StatusClass = iota
	ClassBadRequest
	ClassUnauthorized
	ClassNotFound
	ClassConflict
	ClassTooManyRequests
	ClassServiceUnavailable
	ClassInternalError
)

var classNames = map[StatusClass]string{
	ClassOK:                 "OK",
	ClassBadRequest:         "BadRequest",
	ClassUnauthorized:       "Unauthorized",
	ClassNotFound:           "NotFound",
	ClassConflict:           "Conflict",
	ClassTooManyRequests:    "TooManyRequests",
	ClassServiceUnavailable: "ServiceUnavailable",
	ClassInternalError:      "InternalError",
}

func (c StatusClass) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return "InternalError"
}

// HTTPStatus maps a class onto the HTTP status code written to the client.
func (c StatusClass) HTTPStatus() int {
	switch c {
	case ClassOK:
		return http.StatusOK
	case ClassBadRequest:
		return http.StatusBadRequest
	case ClassUnauthorized:
		return http.StatusUnauthorized
	case ClassNotFound:
		return http.StatusNotFound
	case ClassConflict:
		return http.StatusConflict
	case ClassTooManyRequests:
		return http.StatusTooManyRequests
	case ClassServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Class reports the StatusClass a failure Kind belongs to.
//
// Validation and domain failures are all recoverable client mistakes and
// land in BadRequest. Unknown kinds are treated as internal errors.
func (k Kind) Class() StatusClass {
	switch k {
	case KindMissingField, KindInvalidNumber, KindUnknownOperation,
		KindDivisionByZero, KindNonFiniteResult, KindBadRequest:
		return ClassBadRequest
	case KindUnauthorized:
		return ClassUnauthorized
	case KindNotFound:
		return ClassNotFound
	case KindConflict:
		return ClassConflict
	case KindTooManyRequests:
		return ClassTooManyRequests
	case KindServiceUnavailable:
		return ClassServiceUnavailable
	default:
		return ClassInternalError
	}
}

// New creates an HTTPError for the given failure kind.
//
// Status follows the kind's class, Code is the kind itself.
func New(kind Kind, message string) *HTTPError {
	return &HTTPError{
		Code:     string(kind),
		Message:  message,
		Status:   kind.Class().HTTPStatus(),
		Override: true,
	}
}

// KindOf extracts the failure Kind carried by err.
//
// Errors that are not *HTTPError are reported as KindInternalError.
func KindOf(err error) Kind {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return Kind(httpErr.Code)
	}
	return KindInternalError
}
