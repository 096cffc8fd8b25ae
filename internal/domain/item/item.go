package item

import (
	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/domain"
)

// ErrItemNotFound is returned when a referenced item does not exist.
var ErrItemNotFound = domain.New(domain.KindNotFound, "ITEM_NOT_FOUND", "item not found")

// Item is the read-only view of a catalog item that bookings need.
type Item struct {
	id        uuid.UUID
	ownerID   uuid.UUID
	name      string
	available bool
}

// Reconstruct rebuilds an Item from persistence data (no validation).
func Reconstruct(id, ownerID uuid.UUID, name string, available bool) *Item {
	return &Item{id: id, ownerID: ownerID, name: name, available: available}
}

func (i *Item) ID() uuid.UUID      { return i.id }
func (i *Item) OwnerID() uuid.UUID { return i.ownerID }
func (i *Item) Name() string       { return i.name }
func (i *Item) Available() bool    { return i.available }

// IsOwnedBy checks if the item belongs to the given user.
func (i *Item) IsOwnedBy(userID uuid.UUID) bool {
	return i.ownerID == userID
}
