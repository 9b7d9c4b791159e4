package domain

import "time"

// AlertType classifies a derived operational alert.
type AlertType string

const (
	AlertDelay           AlertType = "delay"
	AlertPickupComplete  AlertType = "pickup_complete"
	AlertDropoffComplete AlertType = "dropoff_complete"
	AlertTripComplete    AlertType = "trip_complete"
)

// Alert is a transient operator-facing notice derived from trips and their
// attendance on every request. It is never persisted and has no identity;
// the whole list is recomputed, sorted by Time descending, and capped.
type Alert struct {
	Time         time.Time `json:"time"`
	Type         AlertType `json:"type"`
	Message      string    `json:"message"`
	VehiclePlate string    `json:"vehicle_plate,omitempty"`
}
