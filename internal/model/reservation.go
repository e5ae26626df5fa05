package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationDetail books one area for an event on behalf of one sponsor.
// The triple (EventID, AreaID, CollaborationID) identifies it; a single
// event may hold several details, each approved independently.
//
// Fields:
//
//	RentStart/RentEnd – requested rental window, half-open [start, end).
//	Status            – approval status (PENDING, APPROVED, REJECTED, CANCELLED).
//	Funding           – amount the sponsor contributes.
//	Purpose           – stated purpose of the booking.
//	Remarks           – rejection reason or other reviewer notes.
type ReservationDetail struct {
	EventID         uint64            `db:"event_id" json:"event_id"`                 // venue_event_details.event_id
	AreaID          uint64            `db:"area_id" json:"area_id"`                   // venue_event_details.area_id
	CollaborationID uint64            `db:"collaboration_id" json:"collaboration_id"` // venue_event_details.collaboration_id
	RentStart       time.Time         `db:"rent_start" json:"rent_start"`             // venue_event_details.rent_start
	RentEnd         time.Time         `db:"rent_end" json:"rent_end"`                 // venue_event_details.rent_end
	Status          ReservationStatus `db:"status" json:"status"`                     // venue_event_details.status
	Funding         decimal.Decimal   `db:"funding" json:"funding"`                   // venue_event_details.funding
	Purpose         string            `db:"purpose" json:"purpose"`                   // venue_event_details.purpose
	Remarks         string            `db:"remarks" json:"remarks,omitempty"`         // venue_event_details.remarks
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`             // venue_event_details.created_at
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`             // venue_event_details.updated_at
}

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Empty reports whether the window contains no instant, which also covers
// inverted windows.
func (w Window) Empty() bool {
	return !w.Start.Before(w.End)
}

// Overlaps reports whether w and o share at least one instant.  A window
// ending exactly when the other begins does not overlap it.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// Window returns the rental window of the detail.
func (d ReservationDetail) Window() Window {
	return Window{Start: d.RentStart, End: d.RentEnd}
}
