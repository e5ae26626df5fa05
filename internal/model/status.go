package model

// ActivityStatus is the lifecycle status of a venue event.  It is
// independent of the approval status of the event's reservations.
type ActivityStatus string

const (
	ActivityPreparing ActivityStatus = "PREPARING"
	ActivityOngoing   ActivityStatus = "ONGOING"
	ActivityCompleted ActivityStatus = "COMPLETED"
	ActivityCancelled ActivityStatus = "CANCELLED"
)

// ReservationStatus is the approval status of one reservation detail.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationApproved  ReservationStatus = "APPROVED"
	ReservationRejected  ReservationStatus = "REJECTED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// BillingStatus is the settlement status of a billing.
type BillingStatus string

const (
	BillingPending   BillingStatus = "PENDING"
	BillingConfirmed BillingStatus = "CONFIRMED"
	BillingPaid      BillingStatus = "PAID"
	BillingCancelled BillingStatus = "CANCELLED"
)

// =============================================================================
// Transition tables
// =============================================================================

var activityTransitions = map[ActivityStatus][]ActivityStatus{
	ActivityPreparing: {ActivityOngoing, ActivityCancelled},
	ActivityOngoing:   {ActivityCompleted, ActivityCancelled},
	ActivityCompleted: {},
	ActivityCancelled: {},
}

// PENDING -> CANCELLED is the withdrawal taken when the parent event is
// cancelled before a decision was made.
var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationApproved, ReservationRejected, ReservationCancelled},
	ReservationApproved:  {ReservationCancelled},
	ReservationRejected:  {},
	ReservationCancelled: {},
}

var billingTransitions = map[BillingStatus][]BillingStatus{
	BillingPending:   {BillingConfirmed, BillingCancelled},
	BillingConfirmed: {BillingPaid},
	BillingPaid:      {},
	BillingCancelled: {},
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known activity status.
func (s ActivityStatus) Valid() bool {
	_, ok := activityTransitions[s]
	return ok
}

// CanTransitionTo reports whether the lifecycle graph has an edge s -> to.
func (s ActivityStatus) CanTransitionTo(to ActivityStatus) bool {
	return contains(activityTransitions[s], to)
}

// Terminal reports whether no edge leaves s.
func (s ActivityStatus) Terminal() bool {
	return s.Valid() && len(activityTransitions[s]) == 0
}

func (s ReservationStatus) Valid() bool {
	_, ok := reservationTransitions[s]
	return ok
}

func (s ReservationStatus) CanTransitionTo(to ReservationStatus) bool {
	return contains(reservationTransitions[s], to)
}

func (s BillingStatus) Valid() bool {
	_, ok := billingTransitions[s]
	return ok
}

func (s BillingStatus) CanTransitionTo(to BillingStatus) bool {
	return contains(billingTransitions[s], to)
}
