// Package ratelimit implements fixed-window request limits keyed by an
// arbitrary string, usually the client IP.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Result is the outcome of a single Allow call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter is the time until the current window resets.
	RetryAfter time.Duration
}

// Limiter decides whether one more request for key fits in the window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Rule is a request budget per window.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
}

func (r Rule) validate() error {
	if r.Limit <= 0 || r.Window <= 0 {
		return fmt.Errorf("ratelimit: rule %q needs a positive limit and window", r.Name)
	}

	return nil
}

// Driver names accepted by the app config.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// ParseDriver normalizes a configured driver name.
func ParseDriver(s string) (string, error) {
	switch d := strings.ToLower(strings.TrimSpace(s)); d {
	case "", DriverMemory:
		return DriverMemory, nil
	case DriverRedis:
		return DriverRedis, nil
	default:
		return "", fmt.Errorf("ratelimit: unsupported driver %q", s)
	}
}
