package mail

import (
	"fmt"
	"strings"
)

// FactoryOptions carries the settings of every transport; only the one
// matching the driver is read.
type FactoryOptions struct {
	Mailry MailryConfig
	SMTP   SMTPConfig
}

// NewFromDriver builds the transport named by driver ("mailry", "smtp").
// An empty or "none" driver, or a driver missing its credentials, yields ErrNotConfigured.
func NewFromDriver(driver string, opts FactoryOptions) (Mail, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "none":
		return nil, ErrNotConfigured
	case "mailry":
		return NewMailry(opts.Mailry)
	case "smtp":
		return NewSMTP(opts.SMTP)
	default:
		return nil, fmt.Errorf("mail: unknown driver %q", driver)
	}
}
