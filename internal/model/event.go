package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a venue activity created together with its reservation.  It is
// never physically deleted; cancellation is a status.
//
// Fields:
//
//	ID          – primary key identifier.
//	Name        – display name of the activity.
//	StartTime   – scheduled start.
//	EndTime     – scheduled end.
//	Capacity    – participant cap.
//	Headcount   – expected participants (nullable).
//	Fee         – per-head fee charged by the organiser.
//	Expense     – organiser expense estimate.
//	Status      – lifecycle status (PREPARING, ONGOING, COMPLETED, CANCELLED).
//	Description – free text.
type Event struct {
	ID          uint64          `db:"id" json:"event_id"`                 // venue_events.id
	Name        string          `db:"name" json:"event_name"`             // venue_events.name
	StartTime   time.Time       `db:"start_time" json:"event_start"`      // venue_events.start_time
	EndTime     time.Time       `db:"end_time" json:"event_end"`          // venue_events.end_time
	Capacity    int             `db:"capacity" json:"capacity"`           // venue_events.capacity
	Headcount   *int            `db:"headcount" json:"headcount"`         // venue_events.headcount (nullable)
	Fee         decimal.Decimal `db:"fee" json:"fee"`                     // venue_events.fee
	Expense     decimal.Decimal `db:"expense" json:"expense"`             // venue_events.expense
	Status      ActivityStatus  `db:"status" json:"activity_status"`      // venue_events.status
	Description string          `db:"description" json:"description"`     // venue_events.description
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`       // venue_events.created_at
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`       // venue_events.updated_at
}
