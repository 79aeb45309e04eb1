package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/claim-management/internal/claim"
	"github.com/frahmantamala/claim-management/internal/core/events"
	"github.com/frahmantamala/claim-management/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect the claim lifecycle events and push a sample through the audit handlers`,
}

var listEventsCmd = &cobra.Command{
	Use:   "list",
	Short: "List claim lifecycle event types",
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range events.ClaimEventTypes() {
			fmt.Println(t)
		}
	},
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a sample claim event",
	Long:  `Publish a sample claim lifecycle event through the audit handlers for debugging`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(args[0])
	},
}

var (
	eventClaimID   int64
	eventReference string
)

func publishTestEvent(eventType string) error {
	known := false
	for _, t := range events.ClaimEventTypes() {
		if t == eventType {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown event type %q", eventType)
	}

	lg := logger.LoggerWrapper()
	eventBus := events.NewEventBus(lg)
	claim.NewEventHandler(lg).RegisterEventHandlers(eventBus)

	event := events.NewClaimLifecycleEvent(eventType, eventClaimID, eventReference, "cli", 0, "0.00")
	lg.Info("publishing test event", "event_type", eventType, "event_id", event.EventID())

	if err := eventBus.PublishSync(context.Background(), event); err != nil {
		return err
	}
	lg.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventClaimID, "claim-id", 0, "claim id carried by the event")
	publishEventCmd.Flags().StringVar(&eventReference, "reference", "", "reference id carried by the event")

	eventCmd.AddCommand(listEventsCmd)
	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
