package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	itemDomain "github.com/Kilat-Pet-Delivery/service-reservation/internal/domain/item"
)

// ItemModel is the GORM model for the items table. Rows are owned by the
// catalog; this service only reads them and locks them during admissions.
type ItemModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Available bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName returns the table name for the GORM model.
func (ItemModel) TableName() string { return "items" }

// GormItemRepository implements ItemRepository using GORM.
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository.
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByID retrieves an item by its ID.
func (r *GormItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*itemDomain.Item, error) {
	var model ItemModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, itemDomain.ErrItemNotFound.WithMessage(fmt.Sprintf("item %s not found", id))
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return toItemDomain(&model), nil
}

// FindByIDs retrieves the items with the given IDs. Unknown IDs are skipped.
func (r *GormItemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*itemDomain.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []ItemModel
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find items: %w", err)
	}
	return toItemDomains(models), nil
}

// FindByOwnerID retrieves all items owned by ownerID, ordered by ID.
func (r *GormItemRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*itemDomain.Item, error) {
	var models []ItemModel
	if err := conn(ctx, r.db).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find owner items: %w", err)
	}
	return toItemDomains(models), nil
}

func toItemDomain(m *ItemModel) *itemDomain.Item {
	return itemDomain.Reconstruct(m.ID, m.OwnerID, m.Name, m.Available)
}

func toItemDomains(models []ItemModel) []*itemDomain.Item {
	items := make([]*itemDomain.Item, len(models))
	for i := range models {
		items[i] = toItemDomain(&models[i])
	}
	return items
}
