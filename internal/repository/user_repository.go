package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	userDomain "github.com/Kilat-Pet-Delivery/service-reservation/internal/domain/user"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Email     string    `gorm:"type:varchar(512);not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName returns the table name for the GORM model.
func (UserModel) TableName() string { return "users" }

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID retrieves a user by their ID.
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	var model UserModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userDomain.ErrUserNotFound.WithMessage(fmt.Sprintf("user %s not found", id))
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return userDomain.Reconstruct(model.ID, model.Name, model.Email), nil
}

// FindByIDs retrieves the users with the given IDs. Unknown IDs are skipped.
func (r *GormUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*userDomain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []UserModel
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	users := make([]*userDomain.User, len(models))
	for i, m := range models {
		users[i] = userDomain.Reconstruct(m.ID, m.Name, m.Email)
	}
	return users, nil
}
