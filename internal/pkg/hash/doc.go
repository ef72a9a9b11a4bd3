// Package hash provides helpers for hashing and verifying secrets.
//
// Passwords go through Bcrypt or Argon2id (both salted and slow). Short-lived
// one-time codes go through HMACSHA256, which is deterministic so a stored
// digest can be matched in a single lookup.
package hash
