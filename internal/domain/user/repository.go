package user

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository resolves user accounts.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error)
}
