package domain

import (
	"time"

	"github.com/google/uuid"
)

// Route is an ordered sequence of stops a bus drives along.
type Route struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Stops are ordered by Seq ascending. Populated by reads that load the
	// full route aggregate; nil on bare trip rows.
	Stops []Stop `json:"stops,omitempty"`
}

// Stop is a single boarding point on a route, with its position in the
// driving order and its geographic location.
type Stop struct {
	ID      uuid.UUID `json:"id"`
	RouteID uuid.UUID `json:"route_id"`
	Name    string    `json:"name"`
	Seq     int       `json:"seq"`
	Lat     float64   `json:"lat"`
	Lng     float64   `json:"lng"`
}
