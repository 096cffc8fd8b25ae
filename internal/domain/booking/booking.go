package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/domain"
)

// Booking is the aggregate root for the reservation of one item by one user.
type Booking struct {
	id       uuid.UUID
	itemID   uuid.UUID
	bookerID uuid.UUID
	interval Interval
	status   BookingStatus

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking aggregate with status=WAITING.
func NewBooking(itemID, bookerID uuid.UUID, start, end time.Time) (*Booking, error) {
	if itemID == uuid.Nil {
		return nil, domain.NewValidationError("item ID is required")
	}
	if bookerID == uuid.Nil {
		return nil, domain.NewValidationError("booker ID is required")
	}
	interval, err := NewInterval(start, end)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:        uuid.New(),
		itemID:    itemID,
		bookerID:  bookerID,
		interval:  Interval{Start: interval.Start.UTC(), End: interval.End.UTC()},
		status:    StatusWaiting,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	itemID uuid.UUID,
	bookerID uuid.UUID,
	start time.Time,
	end time.Time,
	status BookingStatus,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:        id,
		itemID:    itemID,
		bookerID:  bookerID,
		interval:  Interval{Start: start, End: end},
		status:    status,
		version:   version,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// ItemID returns the reserved item's identifier.
func (b *Booking) ItemID() uuid.UUID { return b.itemID }

// BookerID returns the requesting user's identifier.
func (b *Booking) BookerID() uuid.UUID { return b.bookerID }

// Start returns the inclusive start of the reservation.
func (b *Booking) Start() time.Time { return b.interval.Start }

// End returns the exclusive end of the reservation.
func (b *Booking) End() time.Time { return b.interval.End }

// Interval returns the reserved window.
func (b *Booking) Interval() Interval { return b.interval }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsBookedBy reports whether userID made this booking.
func (b *Booking) IsBookedBy(userID uuid.UUID) bool { return b.bookerID == userID }

// HasElapsed reports whether the reserved window is over at now.
func (b *Booking) HasElapsed(now time.Time) bool { return !b.interval.End.After(now) }

// --- Behavior ---

// Approve transitions the booking from WAITING to APPROVED.
func (b *Booking) Approve() error {
	return b.transitionTo(StatusApproved)
}

// Reject transitions the booking from WAITING to REJECTED.
func (b *Booking) Reject() error {
	return b.transitionTo(StatusRejected)
}

// Decide approves or rejects the booking.
func (b *Booking) Decide(approve bool) error {
	if approve {
		return b.Approve()
	}
	return b.Reject()
}

// Cancel transitions a WAITING booking to CANCELED.
func (b *Booking) Cancel() error {
	return b.transitionTo(StatusCanceled)
}

func (b *Booking) transitionTo(target BookingStatus) error {
	if !b.status.CanTransitionTo(target) {
		return ErrAlreadyDecided.WithMessage("booking is already " + string(b.status))
	}
	b.status = target
	b.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
