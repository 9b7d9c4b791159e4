// Package domain contains the core data types for the school-bus tracking
// backend. This package has zero external dependencies and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is the half-day shift a trip runs in.
type Session string

const (
	SessionMorning   Session = "morning"
	SessionAfternoon Session = "afternoon"
)

// Valid reports whether s is one of the known sessions.
func (s Session) Valid() bool {
	return s == SessionMorning || s == SessionAfternoon
}

// TripType is the direction of a trip: collecting students or delivering them.
type TripType string

const (
	TripTypePickup  TripType = "pickup"
	TripTypeDropoff TripType = "dropoff"
)

// Valid reports whether t is one of the known trip types.
func (t TripType) Valid() bool {
	return t == TripTypePickup || t == TripTypeDropoff
}

// TripStatus is the lifecycle state of a trip.
type TripStatus string

const (
	TripStatusScheduled  TripStatus = "scheduled"
	TripStatusInProgress TripStatus = "in_progress"
	TripStatusCompleted  TripStatus = "completed"
	TripStatusCancelled  TripStatus = "cancelled"
)

// Valid reports whether s is one of the known trip statuses.
func (s TripStatus) Valid() bool {
	switch s {
	case TripStatusScheduled, TripStatusInProgress, TripStatusCompleted, TripStatusCancelled:
		return true
	}
	return false
}

// Trip is the top-level scheduling aggregate: one bus run for one route on
// one calendar day and session. Route, bus, and driver are all optional —
// a trip can be sketched before resources are assigned.
//
// Invariant (enforced by the repo inside one transaction, backed by partial
// unique indexes): among non-cancelled trips, at most one trip per
// (driver, trip_date, session, type) and at most one per
// (bus, trip_date, session, type).
type Trip struct {
	ID               uuid.UUID  `json:"id"`
	RouteID          *uuid.UUID `json:"route_id,omitempty"`
	BusID            *uuid.UUID `json:"bus_id,omitempty"`
	DriverID         *uuid.UUID `json:"driver_id,omitempty"`
	TripDate         time.Time  `json:"trip_date"` // calendar day, time part ignored
	Session          Session    `json:"session"`
	Type             TripType   `json:"type"`
	Status           TripStatus `json:"status"`
	PlannedStartTime *time.Time `json:"planned_start_time,omitempty"`
	ActualStartTime  *time.Time `json:"actual_start_time,omitempty"`
	ActualEndTime    *time.Time `json:"actual_end_time,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Relations — populated only by GetWithRelations / ListWithRelations.
	Route      *Route       `json:"route,omitempty"`
	Bus        *Bus         `json:"bus,omitempty"`
	Driver     *User        `json:"driver,omitempty"`
	Attendance []Attendance `json:"attendance,omitempty"`
}

// TripPatch carries a partial update to a trip. Nil fields keep the stored
// value. The conflict guard always runs against the merged result, so a
// partial update cannot slip past it by omitting a field.
type TripPatch struct {
	RouteID          *uuid.UUID
	BusID            *uuid.UUID
	DriverID         *uuid.UUID
	TripDate         *time.Time
	Session          *Session
	Type             *TripType
	Status           *TripStatus
	PlannedStartTime *time.Time
	ActualStartTime  *time.Time
	ActualEndTime    *time.Time
}

// Merge applies the patch on top of current and returns the effective trip.
func (p TripPatch) Merge(current Trip) Trip {
	t := current
	if p.RouteID != nil {
		t.RouteID = p.RouteID
	}
	if p.BusID != nil {
		t.BusID = p.BusID
	}
	if p.DriverID != nil {
		t.DriverID = p.DriverID
	}
	if p.TripDate != nil {
		t.TripDate = *p.TripDate
	}
	if p.Session != nil {
		t.Session = *p.Session
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.PlannedStartTime != nil {
		t.PlannedStartTime = p.PlannedStartTime
	}
	if p.ActualStartTime != nil {
		t.ActualStartTime = p.ActualStartTime
	}
	if p.ActualEndTime != nil {
		t.ActualEndTime = p.ActualEndTime
	}
	return t
}
