package messaging

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/atomic"
)

var ErrUnsupported = errors.New("messaging: unsupported operation")

type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) error
}

type Consumer interface {
	// Consume blocks until ctx is canceled or the subscription fails.
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

type Handler func(ctx context.Context, msg Message) error

type OutgoingMessage struct {
	Body []byte

	// Key is used for partitioning on brokers that support it.
	Key []byte

	// Headers are dropped silently by brokers that cannot carry them.
	Headers []Header
}

type Header struct {
	Key   string
	Value []byte
}

// HeaderValue returns the first header value matching key, case-insensitively.
func HeaderValue(headers []Header, key string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Key, key) {
			return string(h.Value)
		}
	}
	return ""
}

type Message interface {
	Body() []byte
	Key() []byte
	Headers() []Header

	ID() string
	Topic() string
	Timestamp() time.Time

	Ack(ctx context.Context) error
	Nack(ctx context.Context) error
}

// settle guards the broker ack/nack so a message is answered at most once.
type settle struct {
	responded atomic.Bool
}

func (s *settle) hasResponded() bool { return s.responded.Load() }

func (s *settle) once(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.responded.Swap(true) {
		return nil
	}
	return fn()
}
