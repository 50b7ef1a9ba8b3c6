// Package errs define custom error types and utilities.
//
// Its purpose is to create specific error structures..
// (e.g. FieldErrors for forms or HTTPError for API responses)..
// to ensure the client receive meaningful, actionable, and consistent..
// error messages.
//
// It also owns the failure taxonomy (Kind) shared by the calculator core,
// the identity layer and the persistence layer, and the StatusClass every
// Kind collapses into.
package errs
