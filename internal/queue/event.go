// Package queue defines the venue activity messages exchanged over the
// message broker, the publisher that emits them and the consumer that
// records them.
package queue

// ActivityQueueName is the durable queue carrying venue activity messages.
const ActivityQueueName = "venue.activity"

// Activity types.
const (
	ReservationDecided = "reservation.decided"
	EventCancelled     = "event.cancelled"
	BillingCreated     = "billing.created"
	BillingPaid        = "billing.paid"
)

// ActivityEvent is published after a venue state change commits.  It
// carries enough for downstream consumers to log, notify or feed analytics
// without querying the primary database.
type ActivityEvent struct {
	MessageID  string `json:"message_id"`
	Type       string `json:"type"`
	EventID    uint64 `json:"event_id"`
	AreaID     uint64 `json:"area_id,omitempty"`
	Sponsor    string `json:"sponsor,omitempty"`
	BillingID  uint64 `json:"billing_id,omitempty"`
	Status     string `json:"status"`
	Amount     string `json:"amount,omitempty"`
	OperatorID string `json:"operator_id"`
	OccurredAt string `json:"occurred_at"`
}
