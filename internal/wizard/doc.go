// Package wizard drives the client side of email verification: collect the
// profile (or email), wait for the six-digit code under a ten minute
// countdown, then finish signup or set a new password. It talks to the auth
// API through Client and never persists the pending profile.
package wizard
