package booking

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics.
const (
	TopicBookingEvents = "booking.events"
	TopicCatalogEvents = "catalog.events"
)

// CloudEvent types published on TopicBookingEvents.
const (
	EventBookingRequested = "booking.requested"
	EventBookingApproved  = "booking.approved"
	EventBookingRejected  = "booking.rejected"
	EventBookingCancelled = "booking.cancelled"
)

// CloudEvent types consumed from TopicCatalogEvents.
const (
	EventItemDeleted = "item.deleted"
	EventUserDeleted = "user.deleted"
)

// BookingRequestedEvent is emitted when a booker asks for an item.
type BookingRequestedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ItemID     uuid.UUID `json:"item_id"`
	BookerID   uuid.UUID `json:"booker_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingDecidedEvent is emitted when the owner approves or rejects a booking.
type BookingDecidedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ItemID     uuid.UUID `json:"item_id"`
	BookerID   uuid.UUID `json:"booker_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is emitted when a waiting booking expires undecided.
type BookingCancelledEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ItemID     uuid.UUID `json:"item_id"`
	BookerID   uuid.UUID `json:"booker_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ItemDeletedEvent announces that the catalog removed an item.
type ItemDeletedEvent struct {
	ItemID     uuid.UUID `json:"item_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// UserDeletedEvent announces that a user account was removed.
type UserDeletedEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
