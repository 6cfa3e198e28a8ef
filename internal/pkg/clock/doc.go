// Package clock provides a tiny time abstraction.
//
// Expiry and rate-limit decisions read the current time through Clocker so
// tests can pin it with Fixed instead of sleeping.
package clock
