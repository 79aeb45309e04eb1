package claim_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/claim-management/internal/claim"
	"github.com/frahmantamala/claim-management/internal/core/events"
)

var _ = Describe("Claim EventHandler", func() {
	var (
		buf     *bytes.Buffer
		handler *claim.EventHandler
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		handler = claim.NewEventHandler(slog.New(slog.NewJSONHandler(buf, nil)))
	})

	auditLines := func() []map[string]interface{} {
		var lines []map[string]interface{}
		for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			var line map[string]interface{}
			Expect(json.Unmarshal([]byte(raw), &line)).To(Succeed())
			if line["msg"] == "claim audit" {
				lines = append(lines, line)
			}
		}
		return lines
	}

	It("should audit lifecycle events", func() {
		event := events.NewClaimLifecycleEvent(events.EventTypeClaimApproved, 9, "202501230000001", "Approved", 2, "120.50")
		Expect(handler.HandleLifecycle(context.Background(), event)).To(Succeed())

		lines := auditLines()
		Expect(lines).To(HaveLen(1))
		Expect(lines[0]["reference_id"]).To(Equal("202501230000001"))
		Expect(lines[0]["status"]).To(Equal("Approved"))
		Expect(lines[0]["total_amount"]).To(Equal("120.50"))
	})

	It("should refuse foreign events", func() {
		foreign := events.BaseEvent{ID: "x", Type: events.EventTypeClaimCreated, Timestamp: time.Now()}
		Expect(handler.HandleLifecycle(context.Background(), foreign)).To(MatchError(ContainSubstring("expected ClaimLifecycleEvent")))
	})

	It("should subscribe to every claim event type", func() {
		bus := events.NewEventBus(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
		handler.RegisterEventHandlers(bus)

		for _, t := range events.ClaimEventTypes() {
			Expect(bus.PublishSync(context.Background(), events.NewClaimLifecycleEvent(t, 1, "202501230000001", "Initiated", 1, "0.00"))).To(Succeed())
		}
		Expect(auditLines()).To(HaveLen(len(events.ClaimEventTypes())))
	})
})
