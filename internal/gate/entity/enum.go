package entity

import (
	"fmt"
	"strings"
)

// PathClass is the policy class of a request path.
type PathClass int

const (
	PathClassPublic PathClass = iota
	PathClassProtected
	PathClassAuthEntry
)

func (c PathClass) String() string {
	switch c {
	case PathClassPublic:
		return "public"
	case PathClassProtected:
		return "protected"
	case PathClassAuthEntry:
		return "auth_entry"
	default:
		return fmt.Sprintf("path_class(%d)", int(c))
	}
}

// Decision is the outcome of evaluating one request.
type Decision int

const (
	DecisionAllow Decision = iota
	DecisionRedirectLogin
	DecisionRedirectVerify
	DecisionRedirectAway
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionRedirectLogin:
		return "redirect_login"
	case DecisionRedirectVerify:
		return "redirect_verify"
	case DecisionRedirectAway:
		return "redirect_away"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// VerificationMode selects which flag proves a verified email.
type VerificationMode int

const (
	// VerificationModeOTP reads the profile flag set by code verification.
	VerificationModeOTP VerificationMode = iota
	// VerificationModeProvider reads the identity provider's confirmation time.
	VerificationModeProvider
)

func (m VerificationMode) String() string {
	switch m {
	case VerificationModeOTP:
		return "otp"
	case VerificationModeProvider:
		return "provider"
	default:
		return fmt.Sprintf("verification_mode(%d)", int(m))
	}
}

func ParseVerificationMode(s string) (VerificationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "otp":
		return VerificationModeOTP, nil
	case "provider":
		return VerificationModeProvider, nil
	default:
		return 0, fmt.Errorf("gate: unknown verification mode %q", s)
	}
}
