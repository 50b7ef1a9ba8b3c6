// Package handler is the first layer after the router.
//
// It parses requests, validates input through the validation package and
// calls the service layer. It is the boundary between HTTP and the core
// calculator and identity logic.
package handler
