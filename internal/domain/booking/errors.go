package booking

import "github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/domain"

// Booking rejections. Match with errors.Is; messages may be specialised with WithMessage.
var (
	ErrInvalidInterval = domain.New(domain.KindValidation, "INVALID_INTERVAL", "booking start must be before its end")
	ErrBookingNotFound = domain.New(domain.KindNotFound, "BOOKING_NOT_FOUND", "booking not found")
	ErrItemUnavailable = domain.New(domain.KindValidation, "ITEM_UNAVAILABLE", "item is not available for booking")
	ErrConflict        = domain.New(domain.KindConflict, "BOOKING_CONFLICT", "item already reserved for this window")
	ErrOwnerCannotBook = domain.New(domain.KindForbidden, "OWNER_CANNOT_BOOK", "owner cannot book their own item")
	ErrNotOwner        = domain.New(domain.KindForbidden, "NOT_OWNER", "only the item owner can decide on a booking")
	ErrForbidden       = domain.New(domain.KindForbidden, "BOOKING_FORBIDDEN", "only the booker or the item owner can view a booking")
	ErrAlreadyDecided  = domain.New(domain.KindInvalidState, "ALREADY_DECIDED", "booking has already been decided")
	ErrBookingExpired  = domain.New(domain.KindInvalidState, "BOOKING_EXPIRED", "booking window has elapsed; it was cancelled")
	ErrUnknownState    = domain.New(domain.KindValidation, "UNKNOWN_STATE", "unknown booking state")
)
