package domain

import (
	"time"

	"github.com/google/uuid"
)

// Bus is a vehicle in the fleet, identified by its licence plate.
type Bus struct {
	ID        uuid.UUID `json:"id"`
	Plate     string    `json:"plate"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
