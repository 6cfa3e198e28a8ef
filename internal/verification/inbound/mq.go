package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/titipyuk/internal/pkg/config"
	"github.com/shandysiswandi/titipyuk/internal/pkg/goroutine"
	"github.com/shandysiswandi/titipyuk/internal/pkg/instrument"
	"github.com/shandysiswandi/titipyuk/internal/pkg/messaging"
	"github.com/shandysiswandi/titipyuk/internal/pkg/uid"
	"github.com/shandysiswandi/titipyuk/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc ucConsumer,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.verification.consumer_names")

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		handler messaging.Handler
	}{
		{
			name:    event.PrincipalRegisteredConsumerVerification,
			topic:   event.PrincipalRegisteredDestination,
			handler: mqHandler.PrincipalRegistered,
		},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}

		opts := append(messaging.GroupOptions(consumer.name),
			messaging.WithAutoAck(true),
			messaging.WithConcurrency(cfg.GetInt("modules.verification.consumer_concurrency")),
			messaging.WithMaxInFlight(10),
		)

		routine.Go(ctx, consumer.name, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
			return messenger.Consume(pCtx, consumer.topic, consumer.handler, opts...)
		})
	}
}
