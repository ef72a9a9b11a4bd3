// Package jwt is helpers for working with JSON Web Tokens (JWT).
//
// One HS512 implementation serves two token kinds, distinguished by secret
// and audience: long-lived session tokens and short-lived password reset
// grants. Context helpers carry the authenticated claims through a request.
package jwt
