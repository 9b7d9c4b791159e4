// Package service contains the business logic for the school-bus API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here — services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/schoolbus/backend/internal/domain"
	"github.com/schoolbus/backend/internal/repo"
)

// TripService implements business logic for trip scheduling and attendance.
type TripService struct {
	trips      repo.TripRepo
	attendance repo.AttendanceRepo
}

// NewTripService constructs a TripService backed by the provided repos.
func NewTripService(trips repo.TripRepo, attendance repo.AttendanceRepo) *TripService {
	return &TripService{trips: trips, attendance: attendance}
}

// Create validates and persists a new trip, then re-reads it with relations.
// Returns domain.ErrValidation for bad input and domain.ErrConflict when the
// driver or bus is already booked for the same date/session/type slot.
func (s *TripService) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	if trip.Status == "" {
		trip.Status = domain.TripStatusScheduled
	}
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, err
	}

	created, err := s.trips.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	full, err := s.trips.GetWithRelations(ctx, created.ID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: reload: %w", err)
	}
	return full, nil
}

// Update applies a partial patch to an existing trip. Fields absent from the
// patch keep their stored values, so the conflict guard always sees the full
// effective (driver, bus, date, session, type) tuple — a partial update can
// never bypass it.
func (s *TripService) Update(ctx context.Context, id uuid.UUID, patch domain.TripPatch) (domain.Trip, error) {
	current, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}

	merged := patch.Merge(current)
	if err := validateTrip(merged); err != nil {
		return domain.Trip{}, err
	}

	if _, err := s.trips.Update(ctx, merged); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}

	full, err := s.trips.GetWithRelations(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: reload: %w", err)
	}
	return full, nil
}

// GetByID returns a single trip with relations.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	trip, err := s.trips.GetWithRelations(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return trip, nil
}

// ListPaged returns one page of trips plus the total count.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	trips, total, err := s.trips.ListPaged(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListPaged: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, total, nil
}

// Delete removes a trip by ID.
func (s *TripService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.trips.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return nil
}

// AttachStudents links a batch of students to a trip as pending attendance
// records. Students already attached are skipped, so repeating the call with
// the same IDs is a no-op. Returns the trip reloaded with its full
// attendance list. Returns domain.ErrNotFound if the trip does not exist.
func (s *TripService) AttachStudents(ctx context.Context, tripID uuid.UUID, studentIDs []uuid.UUID) (domain.Trip, error) {
	if _, err := s.trips.GetByID(ctx, tripID); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.AttachStudents: %w", err)
	}

	if err := s.attendance.Attach(ctx, tripID, studentIDs); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.AttachStudents: %w", err)
	}

	full, err := s.trips.GetWithRelations(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.AttachStudents: reload: %w", err)
	}
	return full, nil
}

// SetAttendance records a student's boarding state for a trip.
// Marking attended stamps boarded_at; pending and absent never write the
// stamp and never clear an existing one. A transition from attended back to
// pending is allowed. Returns domain.ErrNotFound if no attendance record
// exists for the pair.
func (s *TripService) SetAttendance(ctx context.Context, tripID, studentID uuid.UUID, status domain.AttendanceStatus) (domain.Attendance, error) {
	if !status.Valid() {
		return domain.Attendance{}, fmt.Errorf("%w: unknown attendance status %q", domain.ErrValidation, status)
	}

	record, err := s.attendance.SetStatus(ctx, tripID, studentID, status)
	if err != nil {
		return domain.Attendance{}, fmt.Errorf("service.TripService.SetAttendance: %w", err)
	}
	return record, nil
}

// validateTrip enforces business rules common to both Create and Update.
//   - Trip date, session, and type are required and must be legal values.
//   - Status must be a legal value.
//   - Actual end, if set alongside actual start, must not precede it.
func validateTrip(trip domain.Trip) error {
	if trip.TripDate.IsZero() {
		return fmt.Errorf("%w: trip_date is required", domain.ErrValidation)
	}
	if !trip.Session.Valid() {
		return fmt.Errorf("%w: session must be morning or afternoon", domain.ErrValidation)
	}
	if !trip.Type.Valid() {
		return fmt.Errorf("%w: type must be pickup or dropoff", domain.ErrValidation)
	}
	if !trip.Status.Valid() {
		return fmt.Errorf("%w: unknown trip status %q", domain.ErrValidation, trip.Status)
	}
	if trip.ActualStartTime != nil && trip.ActualEndTime != nil && trip.ActualEndTime.Before(*trip.ActualStartTime) {
		return fmt.Errorf("%w: actual_end_time must not be before actual_start_time", domain.ErrValidation)
	}
	return nil
}
