// Package main provides the notifier service: it consumes request lifecycle
// events from the bus and drives the notification dispatcher.
package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/covena/covena/pkg/eventbus"
	"github.com/covena/covena/pkg/events"
	"github.com/covena/covena/pkg/notification"
	"github.com/covena/covena/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Notifier struct {
	logger     *slog.Logger
	eventBus   eventbus.EventBus
	dispatcher *notification.Dispatcher
	tracer     trace.Tracer
}

func NewNotifier(
	logger *slog.Logger,
	eventBus eventbus.EventBus,
	dispatcher *notification.Dispatcher,
	tracer trace.Tracer,
) *Notifier {
	return &Notifier{
		logger:     logger,
		eventBus:   eventBus,
		dispatcher: dispatcher,
		tracer:     tracer,
	}
}

// Run subscribes to the lifecycle topic and blocks until interrupted.
func (n *Notifier) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handled := []events.EventType{
		events.RequestSubmittedEvent,
		events.RequestStatusChangedEvent,
		events.RequestCancelledEvent,
		events.NeighborApprovalRecordedEvent,
		events.BoardVoteRecordedEvent,
	}

	for _, eventType := range handled {
		if err := n.eventBus.Handle(eventType, n.handleEvent); err != nil {
			return err
		}
	}

	if err := n.eventBus.Subscribe(ctx); err != nil {
		return err
	}

	n.logger.InfoContext(ctx, "Notifier started, waiting for lifecycle events")

	<-ctx.Done()

	n.logger.InfoContext(ctx, "Notifier shutting down")

	return nil
}

// handleEvent dispatches one event. Delivery failures are logged with their
// per-recipient results and the message is still acknowledged; the gateway's
// consumer owns retries.
func (n *Notifier) handleEvent(ctx context.Context, event any) error {
	lifecycleEvent, ok := event.(eventbus.Event)
	if !ok {
		return nil
	}

	ctx, span := otelhelper.StartSpan(ctx, n.tracer, "notifier.handle_event",
		attribute.String("event_type", string(lifecycleEvent.GetType())),
	)
	defer span.End()

	results, err := n.dispatcher.Dispatch(ctx, event)
	if err != nil {
		otelhelper.SetError(span, err)
		n.logger.WarnContext(ctx, "Notification dispatch reported failures",
			"error", err, "results", len(results))
	}

	return nil
}
