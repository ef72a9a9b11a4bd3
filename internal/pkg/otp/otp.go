package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Generator produces one-time codes.
type Generator interface {
	Generate() (string, error)
}

// Numeric draws codes uniformly from [min, max] using crypto/rand, so every
// code has exactly the same number of digits.
type Numeric struct {
	min   int64
	span  *big.Int
	width int
}

// NewNumeric returns a generator of n-digit codes without a leading zero,
// i.e. uniform over [10^(n-1), 10^n - 1]. n must be between 4 and 9.
func NewNumeric(n int) (*Numeric, error) {
	if n < 4 || n > 9 {
		return nil, fmt.Errorf("otp: unsupported code length %d", n)
	}

	lo := int64(1)
	for range n - 1 {
		lo *= 10
	}
	hi := lo*10 - 1

	return &Numeric{min: lo, span: big.NewInt(hi - lo + 1), width: n}, nil
}

// NewSixDigit returns the generator used for email verification codes:
// uniform over [100000, 999999].
func NewSixDigit() *Numeric {
	g, _ := NewNumeric(6)
	return g
}

// Generate returns a fresh code.
func (g *Numeric) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, g.span)
	if err != nil {
		return "", fmt.Errorf("otp: read random: %w", err)
	}

	return fmt.Sprintf("%0*d", g.width, g.min+n.Int64()), nil
}
