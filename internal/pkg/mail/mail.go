package mail

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotConfigured means no transport is set up for this deployment.
	ErrNotConfigured = errors.New("mail: transport not configured")
	ErrNoRecipients  = errors.New("mail: no recipients")
	ErrNoSender      = errors.New("mail: no sender")
)

// Message is a provider-agnostic email.
type Message struct {
	From     string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mail delivers messages.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
