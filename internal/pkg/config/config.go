// Package config exposes typed, read-only access to application settings.
package config

import (
	"io"
	"time"
)

// DurationConfig defines helpers for retrieving time-based values.
type DurationConfig interface {
	// GetSecond reads an integer value and interprets it as seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer value and interprets it as minutes.
	GetMinute(key string) time.Duration
	// GetDuration reads a Go duration string such as "15m" or "168h".
	// Plain integers are treated as seconds.
	GetDuration(key string) time.Duration
}

// Config defines a set of methods for retrieving configuration values of various types.
//
// Missing keys yield the zero value of the requested type.
type Config interface {
	io.Closer
	DurationConfig

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64

	// GetBinary decodes a base64 encoded value.
	GetBinary(key string) []byte

	// GetArray splits a "<element1>,<element2>" value, trimming blanks.
	GetArray(key string) []string

	// GetMap parses a "<key1>:<value1>,<key2>:<value2>" value.
	GetMap(key string) map[string]string
}
