package application

import (
	bookingDomain "github.com/Kilat-Pet-Delivery/service-reservation/internal/domain/booking"
)

// BookingPolicy holds the configurable admission rules.
type BookingPolicy struct {
	// RequireFutureStart rejects a start in the past or an end not in the future.
	RequireFutureStart bool
	// BlockOnWaiting makes pending requests reserve their window, not only approved ones.
	BlockOnWaiting bool
	// CancelExpiredOnDecide cancels a waiting booking whose window elapsed before the owner decided.
	CancelExpiredOnDecide bool
}

// DefaultBookingPolicy returns the production defaults.
func DefaultBookingPolicy() BookingPolicy {
	return BookingPolicy{
		RequireFutureStart:    true,
		BlockOnWaiting:        true,
		CancelExpiredOnDecide: true,
	}
}

// BlockingStatuses returns the statuses that make a booking occupy its window at creation.
func (p BookingPolicy) BlockingStatuses() bookingDomain.StatusSet {
	if p.BlockOnWaiting {
		return bookingDomain.NewStatusSet(bookingDomain.StatusWaiting, bookingDomain.StatusApproved)
	}
	return bookingDomain.NewStatusSet(bookingDomain.StatusApproved)
}

func (p BookingPolicy) temporal() bookingDomain.TemporalPolicy {
	return bookingDomain.TemporalPolicy{RequireFutureStart: p.RequireFutureStart}
}
