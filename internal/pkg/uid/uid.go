// Package uid generates identifiers: snowflake numbers for rows and UUIDv7
// strings for tokens, object keys and correlation ids.
package uid

// NumberID generates unique, roughly time-ordered int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}
