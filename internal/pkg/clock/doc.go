// Package clock provides a tiny time abstraction.
//
// Business logic depends on Clocker instead of calling time.Now directly, and
// countdowns depend on TickerClocker. Tests swap in Fake, which only moves when
// Advance is called.
package clock
