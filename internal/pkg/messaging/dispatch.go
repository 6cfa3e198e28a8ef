package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/titipyuk/internal/pkg/stacktrace"
)

type settledMessage interface {
	Message
	hasResponded() bool
}

// dispatch runs handler with panic recovery and applies the auto-ack policy
// unless the handler already answered the message itself.
func dispatch(ctx context.Context, kind string, msg settledMessage, handler Handler, autoAck bool) error {
	herr := callHandler(ctx, kind, msg, handler)
	if !autoAck || msg.hasResponded() {
		return herr
	}

	if herr != nil {
		slog.WarnContext(ctx, "messaging handler failed", "kind", kind, "topic", msg.Topic(), "error", herr)
		return msg.Nack(ctx)
	}
	return msg.Ack(ctx)
}

func callHandler(ctx context.Context, kind string, msg Message, handler Handler) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", string(stack))
			}
			err = fmt.Errorf("messaging: panic in %s handler: %v", kind, rvr)
		}
	}()

	return handler(ctx, msg)
}
