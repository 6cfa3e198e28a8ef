package entity

import "time"

type Principal struct {
	ID               int64
	Email            string
	EmailVerified    bool
	EmailConfirmedAt *time.Time
}

// OTPToken is one issued code. Only the digest of the code is kept.
type OTPToken struct {
	ID          int64
	UserID      int64
	Email       string
	CodeHash    string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Attempts    int32
	MaxAttempts int32
	UsedAt      *time.Time
}

// IsActive reports whether the token can still be verified against.
func (t OTPToken) IsActive(now time.Time) bool {
	return t.UsedAt == nil && t.ExpiresAt.After(now)
}

func (t OTPToken) IsExhausted() bool {
	return t.Attempts >= t.MaxAttempts
}

type IssuedCode struct {
	UserID    int64
	Email     string
	ExpiresAt time.Time
	Delivered bool
}

type VerifiedEmail struct {
	UserID     int64
	Email      string
	VerifiedAt time.Time
}
