package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 implements Hash with a keyed SHA-256 digest, hex encoded.
//
// The output is deterministic for a given secret, which makes it suitable for
// short numeric codes that must be matched server-side without storing them
// in clear text. Do not use it for passwords.
type HMACSHA256 struct {
	secret []byte
}

// NewHMACSHA256 creates a new hasher with a secret.
func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

// Hash returns the hex-encoded digest of str.
func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	return s.digest(str), nil
}

// Digest is Hash without the error, returned as a string.
func (s *HMACSHA256) Digest(str string) string {
	return string(s.digest(str))
}

// Verify checks whether str produces the given hex digest, in constant time.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	return hmac.Equal([]byte(hashed), s.digest(str))
}

func (s *HMACSHA256) digest(str string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(str))

	return []byte(hex.EncodeToString(h.Sum(nil)))
}
