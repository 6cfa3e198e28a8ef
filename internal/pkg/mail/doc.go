// Package mail sends transactional email through a pluggable transport.
//
// Two transports exist: the Mailry HTTP API and plain SMTP. NewFromDriver picks
// one from configuration; when no transport is configured it returns
// ErrNotConfigured so callers can degrade to "not delivered" instead of failing.
package mail
