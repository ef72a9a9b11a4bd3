package otp

import (
	"strconv"
	"testing"
)

func TestNewSixDigit_Range(t *testing.T) {
	// Arrange
	g := NewSixDigit()

	// Act & Assert
	for range 5000 {
		code, err := g.Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 characters, got %q", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("expected numeric code, got %q", code)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d out of range", n)
		}
	}
}

func TestNewSixDigit_Spread(t *testing.T) {
	// Arrange
	g := NewSixDigit()
	buckets := make(map[byte]int)

	// Act
	for range 9000 {
		code, _ := g.Generate()
		buckets[code[0]]++
	}

	// Assert
	for d := byte('1'); d <= '9'; d++ {
		if buckets[d] < 700 {
			t.Fatalf("leading digit %c drawn %d times, distribution looks skewed", d, buckets[d])
		}
	}
	if buckets['0'] != 0 {
		t.Fatal("leading zero must never be drawn")
	}
}

func TestNewNumeric_InvalidLength(t *testing.T) {
	for _, n := range []int{0, 3, 10} {
		if _, err := NewNumeric(n); err == nil {
			t.Fatalf("expected error for length %d", n)
		}
	}
}
