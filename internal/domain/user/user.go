package user

import (
	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/domain"
)

// ErrUserNotFound is returned when a referenced user does not exist.
var ErrUserNotFound = domain.New(domain.KindNotFound, "USER_NOT_FOUND", "user not found")

// User is the read-only identity record used by bookings.
type User struct {
	id    uuid.UUID
	name  string
	email string
}

// Reconstruct rebuilds a User from persistence data (no validation).
func Reconstruct(id uuid.UUID, name, email string) *User {
	return &User{id: id, name: name, email: email}
}

func (u *User) ID() uuid.UUID { return u.id }
func (u *User) Name() string  { return u.name }
func (u *User) Email() string { return u.email }
