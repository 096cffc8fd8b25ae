package item

import (
	"context"

	"github.com/google/uuid"
)

// ItemRepository resolves items owned by the catalog.
type ItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Item, error)
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*Item, error)
}
