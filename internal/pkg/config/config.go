package config

import (
	"io"
	"time"
)

// DurationConfig reads integer values and scales them to a time unit.
type DurationConfig interface {
	GetMillisecond(key string) time.Duration
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
}

// NumberConfig reads numeric values. Missing or unparsable keys yield zero.
type NumberConfig interface {
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetFloat64(key string) float64
}

// Config is the read-only view over the service configuration.
//
// Keys use dot notation (for example "verification.code_ttl_minutes"). Every key can
// be overridden from the environment by upper-casing it and replacing dots with
// underscores ("VERIFICATION_CODE_TTL_MINUTES").
type Config interface {
	io.Closer
	DurationConfig
	NumberConfig

	GetBool(key string) bool
	GetString(key string) string

	// GetBinary decodes a base64 value. Invalid input yields nil.
	GetBinary(key string) []byte

	// GetArray reads a comma separated value (or a YAML list). Elements are
	// trimmed and empty elements are dropped.
	GetArray(key string) []string
}
