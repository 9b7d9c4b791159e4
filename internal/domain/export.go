package domain

import "time"

// ExportRow is a single row in the full attendance export.
// It is a flat, denormalized view: one row per attendance record, with trip
// fields repeated for every student on that trip. Trips with no attendance
// yield one row with zero values for all student fields.
type ExportRow struct {
	// Trip fields — repeated for every student on the trip.
	TripID     string `json:"trip_id"`
	TripDate   string `json:"trip_date"` // "2006-01-02" formatted date
	Session    string `json:"session"`
	TripType   string `json:"trip_type"`
	TripStatus string `json:"trip_status"`
	RouteName  string `json:"route_name,omitempty"`
	BusPlate   string `json:"bus_plate,omitempty"`
	DriverName string `json:"driver_name,omitempty"`

	// Student fields — zero values when the trip has no attendance.
	StudentID        string     `json:"student_id,omitempty"`
	StudentName      string     `json:"student_name,omitempty"`
	AttendanceStatus string     `json:"attendance_status,omitempty"`
	BoardedAt        *time.Time `json:"boarded_at,omitempty"`
}
