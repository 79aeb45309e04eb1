package claim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/claim-management/internal/core/events"
)

// EventHandler writes an audit line for every claim lifecycle event.
type EventHandler struct {
	logger *slog.Logger
}

func NewEventHandler(logger *slog.Logger) *EventHandler {
	return &EventHandler{logger: logger}
}

func (h *EventHandler) HandleLifecycle(ctx context.Context, event events.Event) error {
	lifecycle, ok := event.(*events.ClaimLifecycleEvent)
	if !ok {
		h.logger.Error("invalid event type for claim lifecycle handler", "event_type", event.EventType())
		return fmt.Errorf("expected ClaimLifecycleEvent, got %T", event)
	}

	h.logger.Info("claim audit",
		"event_id", lifecycle.EventID(),
		"event_type", lifecycle.EventType(),
		"claim_id", lifecycle.ClaimID,
		"reference_id", lifecycle.ReferenceID,
		"status", lifecycle.Status,
		"actor_id", lifecycle.ActorID,
		"total_amount", lifecycle.TotalAmount,
		"occurred_at", lifecycle.OccurredAt())
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	types := events.ClaimEventTypes()
	for _, t := range types {
		eventBus.Subscribe(t, h.HandleLifecycle)
	}

	h.logger.Info("claim event handlers registered", "handlers", types)
}
