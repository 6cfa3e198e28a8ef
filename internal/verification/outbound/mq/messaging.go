package mq

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/titipyuk/internal/pkg/instrument"
	"github.com/shandysiswandi/titipyuk/internal/pkg/messaging"
	"github.com/shandysiswandi/titipyuk/internal/shared/event"
	"github.com/shandysiswandi/titipyuk/internal/verification/entity"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

// NewMessaging accepts a nil client; events are then dropped.
func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishCodeIssued(ctx context.Context, msg entity.IssuedCode) error {
	ctx, span := m.ins.Tracer("verification.outbound.mq").Start(ctx, "PublishCodeIssued")
	defer span.End()

	return m.publish(ctx, span, event.VerificationCodeIssuedDestination, event.VerificationCodeIssuedMessage{
		UserID:    msg.UserID,
		Email:     msg.Email,
		ExpiresAt: msg.ExpiresAt,
		Delivered: msg.Delivered,
	})
}

func (m *Messaging) PublishEmailVerified(ctx context.Context, msg entity.VerifiedEmail) error {
	ctx, span := m.ins.Tracer("verification.outbound.mq").Start(ctx, "PublishEmailVerified")
	defer span.End()

	return m.publish(ctx, span, event.VerificationEmailVerifiedDestination, event.VerificationEmailVerifiedMessage{
		UserID:     msg.UserID,
		Email:      msg.Email,
		VerifiedAt: msg.VerifiedAt,
	})
}

func (m *Messaging) publish(ctx context.Context, span trace.Span, dest string, payload any) error {
	if m.client == nil {
		slog.DebugContext(ctx, "no broker configured, event dropped", "destination", dest)
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if err := m.client.Publish(ctx, dest, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
