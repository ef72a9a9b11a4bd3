// Package mail defines the contracts for sending email messages.
//
// Use cases depend on the Mail interface and the provider-agnostic Message.
// SMTP delivers through gomail; Memory keeps an outbox for tests and local
// development.
package mail
