package sqlerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/calculator-api/internal/errs"
)

func asHTTP(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected *errs.HTTPError, got %T", err)
	return httpErr
}

func TestHandleError_NoRowsNamesTheEntity(t *testing.T) {
	err := HandleError(fmt.Errorf("%scalculations: %w", TablePrefix, pgx.ErrNoRows))

	httpErr := asHTTP(t, err)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Equal(t, "Calculation not found", httpErr.Message)
}

func TestHandleError_NoRowsWithoutTable(t *testing.T) {
	httpErr := asHTTP(t, HandleError(pgx.ErrNoRows))
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Equal(t, "Resource not found", httpErr.Message)
}

func TestHandleError_PgErrors(t *testing.T) {
	tests := []struct {
		name    string
		pgErr   *pgconn.PgError
		status  int
		code    string
		message string
	}{
		{
			name:    "unique",
			pgErr:   &pgconn.PgError{Code: "23505", TableName: "calculations", ConstraintName: "calculations_id_key"},
			status:  http.StatusConflict,
			code:    "CALCULATION_ALREADY_EXISTS",
			message: "A Calculation with this Id already exists",
		},
		{
			name:    "check",
			pgErr:   &pgconn.PgError{Code: "23514", TableName: "calculations", ColumnName: "operation"},
			status:  http.StatusBadRequest,
			code:    "CALCULATION_INVALID",
			message: "The Operation value does not meet required conditions",
		},
		{
			name:    "not null",
			pgErr:   &pgconn.PgError{Code: "23502", TableName: "calculations", ColumnName: "result"},
			status:  http.StatusBadRequest,
			code:    "CALCULATION_REQUIRED",
			message: "The Result is required",
		},
		{
			name:    "bad uuid",
			pgErr:   &pgconn.PgError{Code: "22P02", TableName: "calculations"},
			status:  http.StatusBadRequest,
			code:    "CALCULATION_INVALID",
			message: "Invalid Calculation identifier",
		},
		{
			name:    "connection",
			pgErr:   &pgconn.PgError{Code: "08006"},
			status:  http.StatusServiceUnavailable,
			code:    "SERVICE_UNAVAILABLE",
			message: "Database not available",
		},
		{
			name:    "other",
			pgErr:   &pgconn.PgError{Code: "42P01", Message: "relation does not exist"},
			status:  http.StatusInternalServerError,
			code:    "INTERNAL_SERVER_ERROR",
			message: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := asHTTP(t, HandleError(fmt.Errorf("wrapped: %w", tt.pgErr)))
			assert.Equal(t, tt.status, httpErr.Status)
			assert.Equal(t, tt.code, httpErr.Code)
			assert.Equal(t, tt.message, httpErr.Message)
		})
	}
}

func TestHandleError_PassThrough(t *testing.T) {
	original := errs.NewConflictError("exists")
	assert.Same(t, original, HandleError(original))
	assert.Nil(t, HandleError(nil))

	httpErr := asHTTP(t, HandleError(errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
}

func TestConvertPgError(t *testing.T) {
	src := &pgconn.PgError{Code: "23505", Severity: "ERROR", Message: "duplicate"}
	converted := ConvertPgError(src)

	assert.Equal(t, UniqueViolation, converted.Code)
	assert.Equal(t, SeverityError, converted.Severity)
	assert.ErrorIs(t, converted, src)
	assert.Equal(t, UniqueViolation, ErrCode(fmt.Errorf("x: %w", converted)))
	assert.Equal(t, Other, ErrCode(errors.New("x")))
}

func TestMapping(t *testing.T) {
	assert.Equal(t, ForeignKeyViolation, MapCode("23503"))
	assert.Equal(t, ConnectionFailure, MapCode("08001"))
	assert.Equal(t, Other, MapCode("XX000"))

	assert.Equal(t, SeverityFatal, MapSeverity("FATAL"))
	assert.Equal(t, SeverityError, MapSeverity("weird"))

	assert.Equal(t, "email", extractColumnForUniqueViolation("unique_users_email"))
	assert.Equal(t, "email", extractColumnForUniqueViolation("users_email_key"))
	assert.Equal(t, "", extractColumnForUniqueViolation("pk"))
}
