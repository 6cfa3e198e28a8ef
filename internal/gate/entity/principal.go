package entity

import "time"

type Principal struct {
	ID               int64
	Email            string
	EmailVerified    bool
	EmailConfirmedAt *time.Time
}

func (p Principal) Verified(mode VerificationMode) bool {
	if mode == VerificationModeProvider {
		return p.EmailConfirmedAt != nil
	}
	return p.EmailVerified
}
