package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeClaimCreated   = "claim.created"
	EventTypeClaimSubmitted = "claim.submitted"
	EventTypeClaimApproved  = "claim.approved"
	EventTypeClaimRejected  = "claim.rejected"
)

// ClaimLifecycleEvent records one status change of a claim, published after commit.
type ClaimLifecycleEvent struct {
	BaseEvent
	ClaimID     int64  `json:"claim_id"`
	ReferenceID string `json:"reference_id"`
	Status      string `json:"status"`
	ActorID     int64  `json:"actor_id"`
	TotalAmount string `json:"total_amount"`
}

func NewClaimLifecycleEvent(eventType string, claimID int64, referenceID, status string, actorID int64, totalAmount string) *ClaimLifecycleEvent {
	return &ClaimLifecycleEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"claim_id":     claimID,
				"reference_id": referenceID,
				"status":       status,
				"actor_id":     actorID,
				"total_amount": totalAmount,
			},
		},
		ClaimID:     claimID,
		ReferenceID: referenceID,
		Status:      status,
		ActorID:     actorID,
		TotalAmount: totalAmount,
	}
}

// ClaimEventTypes lists every lifecycle event the claim core emits.
func ClaimEventTypes() []string {
	return []string{
		EventTypeClaimCreated,
		EventTypeClaimSubmitted,
		EventTypeClaimApproved,
		EventTypeClaimRejected,
	}
}
