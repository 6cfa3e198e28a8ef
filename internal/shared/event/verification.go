package event

import "time"

const VerificationCodeIssuedDestination string = "verification_code_issued"
const VerificationEmailVerifiedDestination string = "verification_email_verified"

type VerificationCodeIssuedMessage struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	Delivered bool      `json:"delivered"`
}

type VerificationEmailVerifiedMessage struct {
	UserID     int64     `json:"user_id"`
	Email      string    `json:"email"`
	VerifiedAt time.Time `json:"verified_at"`
}
