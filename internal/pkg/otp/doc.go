// Package otp generates numeric one-time codes for email verification.
//
// Codes are independent of any shared secret or clock: every digit is drawn
// from crypto/rand, so the whole code space is equally likely and a code says
// nothing about the next one.
package otp
