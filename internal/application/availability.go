package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/Kilat-Pet-Delivery/service-reservation/internal/domain/booking"
	itemDomain "github.com/Kilat-Pet-Delivery/service-reservation/internal/domain/item"
)

// AvailabilityChecker decides whether an item can take a booking for a window.
// It has no side effects.
type AvailabilityChecker struct {
	items    itemDomain.ItemRepository
	bookings bookingDomain.BookingRepository
	blocking bookingDomain.StatusSet
}

// NewAvailabilityChecker creates a checker that treats bookings in blocking as occupying their window.
func NewAvailabilityChecker(
	items itemDomain.ItemRepository,
	bookings bookingDomain.BookingRepository,
	blocking bookingDomain.StatusSet,
) *AvailabilityChecker {
	return &AvailabilityChecker{items: items, bookings: bookings, blocking: blocking}
}

// Check validates [start, end) for itemID and returns the item when it is free.
func (c *AvailabilityChecker) Check(ctx context.Context, itemID uuid.UUID, start, end time.Time) (*itemDomain.Item, error) {
	interval, err := bookingDomain.NewInterval(start, end)
	if err != nil {
		return nil, err
	}
	return c.check(ctx, itemID, interval)
}

func (c *AvailabilityChecker) check(ctx context.Context, itemID uuid.UUID, interval bookingDomain.Interval) (*itemDomain.Item, error) {
	it, err := c.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !it.Available() {
		return nil, bookingDomain.ErrItemUnavailable.WithMessage(fmt.Sprintf("item %s is not available", itemID))
	}

	existing, err := c.bookings.FindByItemID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if conflict := bookingDomain.FindConflict(interval, existing, c.blocking, nil); conflict != nil {
		return nil, bookingDomain.ErrConflict.WithMessage(fmt.Sprintf(
			"item %s is already reserved from %s to %s",
			itemID, conflict.Start().Format(time.RFC3339), conflict.End().Format(time.RFC3339)))
	}
	return it, nil
}
