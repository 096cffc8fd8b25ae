package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/domain"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByItemID retrieves every booking of an item.
	FindByItemID(ctx context.Context, itemID uuid.UUID) ([]*Booking, error)

	// FindByItemIDs retrieves every booking of the given items in one query.
	FindByItemIDs(ctx context.Context, itemIDs []uuid.UUID) ([]*Booking, error)

	// FindByBooker retrieves a booker's bookings matching c, newest start first.
	FindByBooker(ctx context.Context, bookerID uuid.UUID, c Criteria, page domain.Page) ([]*Booking, error)

	// FindByOwner retrieves bookings of items owned by ownerID matching c, newest start first.
	FindByOwner(ctx context.Context, ownerID uuid.UUID, c Criteria, page domain.Page) ([]*Booking, error)

	// HasFinishedApproved reports whether bookerID has an APPROVED booking of itemID that ended before now.
	HasFinishedApproved(ctx context.Context, bookerID, itemID uuid.UUID, now time.Time) (bool, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error

	// DeleteByItemID removes the bookings of a deleted item.
	DeleteByItemID(ctx context.Context, itemID uuid.UUID) (int64, error)

	// DeleteByBookerID removes the bookings of a deleted user.
	DeleteByBookerID(ctx context.Context, bookerID uuid.UUID) (int64, error)
}

// Transactor runs fn inside a single store transaction that holds an
// exclusive lock on the item. Calls for the same item are serialized; calls
// for different items do not block each other. Repositories invoked with the
// ctx passed to fn take part in the transaction.
type Transactor interface {
	WithinItemLock(ctx context.Context, itemID uuid.UUID, fn func(ctx context.Context) error) error
}

// CommitError makes a Transactor commit the work fn has done and still
// return Err to the caller.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string { return e.Err.Error() }

func (e *CommitError) Unwrap() error { return e.Err }
