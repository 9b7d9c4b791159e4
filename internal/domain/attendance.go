package domain

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceStatus is the per-student boarding state for one trip.
type AttendanceStatus string

const (
	AttendancePending  AttendanceStatus = "pending"
	AttendanceAttended AttendanceStatus = "attended"
	AttendanceAbsent   AttendanceStatus = "absent"
)

// Valid reports whether s is one of the known attendance statuses.
func (s AttendanceStatus) Valid() bool {
	return s == AttendancePending || s == AttendanceAttended || s == AttendanceAbsent
}

// Attendance links one student to one trip. BoardedAt is stamped when the
// status first becomes attended and is deliberately never cleared on a later
// transition back to pending or absent — a one-way stamp, not an audit log.
type Attendance struct {
	TripID    uuid.UUID        `json:"trip_id"`
	StudentID uuid.UUID        `json:"student_id"`
	Status    AttendanceStatus `json:"status"`
	BoardedAt *time.Time       `json:"boarded_at,omitempty"`

	// Student is populated by reads that load the trip aggregate.
	Student *Student `json:"student,omitempty"`
}
