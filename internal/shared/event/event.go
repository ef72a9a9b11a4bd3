// Package event holds the payloads auth publishes and other modules consume.
package event

// HeaderCorrelationID carries the request correlation id across the broker.
const HeaderCorrelationID string = "cID"
