// Package validator provides a small validation abstraction for request and
// domain structs.
//
// Business code depends on the Validator interface. V10Validator is backed by
// go-playground/validator v10 and reports failures keyed by the JSON field
// name, so the map can be returned to clients as is.
package validator
