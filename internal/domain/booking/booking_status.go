package booking

import "fmt"

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
	StatusCanceled BookingStatus = "CANCELED"
)

// validTransitions defines the state machine for booking status transitions.
// A booking leaves WAITING exactly once.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusWaiting:  {StatusApproved, StatusRejected, StatusCanceled},
	StatusApproved: {},
	StatusRejected: {},
	StatusCanceled: {},
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// StatusSet is a small set of statuses, used to decide which bookings block a slot.
type StatusSet map[BookingStatus]struct{}

// NewStatusSet builds a set from the given statuses.
func NewStatusSet(statuses ...BookingStatus) StatusSet {
	set := make(StatusSet, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return set
}

// Contains reports whether s is in the set.
func (set StatusSet) Contains(s BookingStatus) bool {
	_, ok := set[s]
	return ok
}

// Slice returns the members in a stable order.
func (set StatusSet) Slice() []BookingStatus {
	out := make([]BookingStatus, 0, len(set))
	for _, s := range []BookingStatus{StatusWaiting, StatusApproved, StatusRejected, StatusCanceled} {
		if set.Contains(s) {
			out = append(out, s)
		}
	}
	return out
}
