// Package uid generates identifiers: numeric snowflake ids for rows and
// string uuids for correlation and instance ids.
package uid

// NumberID generates unique int64 ids.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string ids.
type StringID interface {
	Generate() string
}
