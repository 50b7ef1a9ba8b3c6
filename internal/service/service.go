// Package service contains the business logic.
//
// It sits between the handler and repository layers. It receives validated
// data from the handler, runs the calculator pipeline or talks to the
// identity collaborator, and calls repository methods for persistence.
package service

import "github.com/deppfellow/calculator-api/internal/errs"

var (
	errDatabaseUnavailable = errs.NewServiceUnavailableError("Database not available")
	errIdentityUnavailable = errs.NewServiceUnavailableError("Authentication service not available")
)
