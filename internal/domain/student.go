package domain

import (
	"time"

	"github.com/google/uuid"
)

// Student is a child riding the bus. PickupStopID and DropoffStopID point at
// the stops where the student boards and alights; either may be nil when the
// family has not chosen a stop yet.
type Student struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	PickupStopID  *uuid.UUID `json:"pickup_stop_id,omitempty"`
	DropoffStopID *uuid.UUID `json:"dropoff_stop_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
