package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserRole distinguishes drivers from dispatch managers.
type UserRole string

const (
	RoleDriver  UserRole = "driver"
	RoleManager UserRole = "manager"
)

// User is a driver or manager account. Authentication lives elsewhere;
// this backend only reads users to assign drivers and name them in
// conflict messages.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
