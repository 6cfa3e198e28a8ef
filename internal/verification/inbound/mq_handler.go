package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/titipyuk/internal/pkg/instrument"
	"github.com/shandysiswandi/titipyuk/internal/pkg/messaging"
	"github.com/shandysiswandi/titipyuk/internal/pkg/uid"
	"github.com/shandysiswandi/titipyuk/internal/shared/event"
	"github.com/shandysiswandi/titipyuk/internal/verification/usecase"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   ucConsumer
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	if cID := messaging.HeaderValue(headers, keyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) PrincipalRegistered(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("verification.inbound.mq").Start(ctx, "PrincipalRegistered")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: principal registered", "msg_id", msg.ID())

	var payload event.PrincipalRegisteredMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of principal registered", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumePrincipalRegistered(ctx, usecase.ConsumePrincipalRegisteredInput{
		UserID: payload.UserID,
		Email:  payload.Email,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume principal registered", "user_id", payload.UserID, "error", err)
		return err
	}

	return nil
}
