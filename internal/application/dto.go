package application

import (
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/Kilat-Pet-Delivery/service-reservation/internal/domain/booking"
	itemDomain "github.com/Kilat-Pet-Delivery/service-reservation/internal/domain/item"
	userDomain "github.com/Kilat-Pet-Delivery/service-reservation/internal/domain/user"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ItemID uuid.UUID `json:"item_id" binding:"required"`
	Start  time.Time `json:"start" binding:"required"`
	End    time.Time `json:"end" binding:"required"`
}

// ItemSummaryDTO is the item reference embedded in a booking.
type ItemSummaryDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// UserSummaryDTO is the booker reference embedded in a booking.
type UserSummaryDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID        uuid.UUID      `json:"id"`
	Start     time.Time      `json:"start"`
	End       time.Time      `json:"end"`
	Status    string         `json:"status"`
	Item      ItemSummaryDTO `json:"item"`
	Booker    UserSummaryDTO `json:"booker"`
	Version   int64          `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// LastNextDTO carries an item's last and next approved bookings. A missing
// booking is rendered as null.
type LastNextDTO struct {
	LastBooking *bookingDomain.Short `json:"last_booking"`
	NextBooking *bookingDomain.Short `json:"next_booking"`
}

// ItemBookingsDTO is an item with its last/next bookings. LastNextDTO is nil
// for viewers other than the owner, which drops both keys from the JSON.
type ItemBookingsDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Available bool      `json:"available"`
	*LastNextDTO
}

// ReviewEligibilityDTO tells whether a user may review an item.
type ReviewEligibilityDTO struct {
	ItemID    uuid.UUID `json:"item_id"`
	CanReview bool      `json:"can_review"`
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking, it *itemDomain.Item, booker *userDomain.User) BookingDTO {
	dto := BookingDTO{
		ID:        bk.ID(),
		Start:     bk.Start(),
		End:       bk.End(),
		Status:    string(bk.Status()),
		Item:      ItemSummaryDTO{ID: bk.ItemID()},
		Booker:    UserSummaryDTO{ID: bk.BookerID()},
		Version:   bk.Version(),
		CreatedAt: bk.CreatedAt(),
		UpdatedAt: bk.UpdatedAt(),
	}
	if it != nil {
		dto.Item.Name = it.Name()
	}
	if booker != nil {
		dto.Booker.Name = booker.Name()
	}
	return dto
}

func toLastNextDTO(ln bookingDomain.LastNext) LastNextDTO {
	return LastNextDTO{LastBooking: ln.Last, NextBooking: ln.Next}
}

func toItemDTO(it *itemDomain.Item) ItemBookingsDTO {
	return ItemBookingsDTO{
		ID:        it.ID(),
		Name:      it.Name(),
		Available: it.Available(),
	}
}

func toItemBookingsDTO(it *itemDomain.Item, ln bookingDomain.LastNext) ItemBookingsDTO {
	dto := toItemDTO(it)
	lastNext := toLastNextDTO(ln)
	dto.LastNextDTO = &lastNext
	return dto
}
