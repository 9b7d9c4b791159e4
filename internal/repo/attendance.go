package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/schoolbus/backend/internal/domain"
)

// AttendanceRepo defines the persistence operations for per-trip student
// attendance records.
type AttendanceRepo interface {
	// Attach inserts pending attendance records linking the given students
	// to the trip. Pairs that already exist are skipped, so the operation
	// is idempotent (ON CONFLICT DO NOTHING on the composite primary key).
	Attach(ctx context.Context, tripID uuid.UUID, studentIDs []uuid.UUID) error

	// Get retrieves the attendance record for one (trip, student) pair.
	// Returns domain.ErrNotFound if the pair has no record.
	Get(ctx context.Context, tripID, studentID uuid.UUID) (domain.Attendance, error)

	// SetStatus updates the status of one attendance record and returns it.
	// Transitioning to attended stamps boarded_at with the database clock;
	// any other status leaves an existing stamp untouched (one-way stamp).
	// Returns domain.ErrNotFound if the pair has no record.
	SetStatus(ctx context.Context, tripID, studentID uuid.UUID, status domain.AttendanceStatus) (domain.Attendance, error)

	// ListByTrip returns all attendance records for a trip, each with its
	// student loaded, ordered by student name.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Attendance, error)
}

// pgAttendanceRepo is the Postgres implementation of AttendanceRepo.
type pgAttendanceRepo struct {
	db db
}

// NewAttendanceRepo constructs an AttendanceRepo backed by the provided db connection.
func NewAttendanceRepo(db db) AttendanceRepo {
	return &pgAttendanceRepo{db: db}
}

func (r *pgAttendanceRepo) Attach(ctx context.Context, tripID uuid.UUID, studentIDs []uuid.UUID) error {
	const q = `
		INSERT INTO trip_students (trip_id, student_id)
		VALUES (@trip_id, @student_id)
		ON CONFLICT (trip_id, student_id) DO NOTHING`

	for _, studentID := range studentIDs {
		args := pgx.NamedArgs{"trip_id": tripID, "student_id": studentID}
		if _, err := r.db.Exec(ctx, q, args); err != nil {
			return fmt.Errorf("repo.AttendanceRepo.Attach: %w", err)
		}
	}
	return nil
}

func (r *pgAttendanceRepo) Get(ctx context.Context, tripID, studentID uuid.UUID) (domain.Attendance, error) {
	const q = `
		SELECT trip_id, student_id, status, boarded_at
		FROM trip_students
		WHERE trip_id = @trip_id AND student_id = @student_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "student_id": studentID})
	result, err := scanAttendance(row)
	if err != nil {
		return domain.Attendance{}, fmt.Errorf("repo.AttendanceRepo.Get: %w", err)
	}
	return result, nil
}

func (r *pgAttendanceRepo) SetStatus(ctx context.Context, tripID, studentID uuid.UUID, status domain.AttendanceStatus) (domain.Attendance, error) {
	// boarded_at is a one-way stamp: set on attended, never cleared on a
	// transition back to pending or absent.
	const q = `
		UPDATE trip_students
		SET status     = @status,
		    boarded_at = CASE WHEN @status = 'attended' THEN now() ELSE boarded_at END
		WHERE trip_id = @trip_id AND student_id = @student_id
		RETURNING trip_id, student_id, status, boarded_at`

	args := pgx.NamedArgs{"trip_id": tripID, "student_id": studentID, "status": status}
	row := r.db.QueryRow(ctx, q, args)
	result, err := scanAttendance(row)
	if err != nil {
		return domain.Attendance{}, fmt.Errorf("repo.AttendanceRepo.SetStatus: %w", err)
	}
	return result, nil
}

func (r *pgAttendanceRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Attendance, error) {
	attendance, err := listAttendance(ctx, r.db, tripID)
	if err != nil {
		return nil, fmt.Errorf("repo.AttendanceRepo.ListByTrip: %w", err)
	}
	return attendance, nil
}

// listAttendance reads all attendance rows for a trip with their students
// joined in. Shared with the trip repo's relation loader.
func listAttendance(ctx context.Context, q db, tripID uuid.UUID) ([]domain.Attendance, error) {
	const query = `
		SELECT ts.trip_id, ts.student_id, ts.status, ts.boarded_at,
		       s.id, s.name, s.pickup_stop_id, s.dropoff_stop_id, s.created_at, s.updated_at
		FROM trip_students ts
		JOIN students s ON s.id = ts.student_id
		WHERE ts.trip_id = @trip_id
		ORDER BY s.name`

	rows, err := q.Query(ctx, query, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.Attendance
	for rows.Next() {
		var (
			a         domain.Attendance
			tripRaw   pgtype.UUID
			stuRaw    pgtype.UUID
			boarded   pgtype.Timestamptz
			st        domain.Student
			stID      pgtype.UUID
			pickupID  pgtype.UUID
			dropoffID pgtype.UUID
		)
		err := rows.Scan(&tripRaw, &stuRaw, &a.Status, &boarded,
			&stID, &st.Name, &pickupID, &dropoffID, &st.CreatedAt, &st.UpdatedAt)
		if err != nil {
			return nil, err
		}

		a.TripID = uuid.UUID(tripRaw.Bytes)
		a.StudentID = uuid.UUID(stuRaw.Bytes)
		a.BoardedAt = timePtr(boarded)
		st.ID = uuid.UUID(stID.Bytes)
		st.PickupStopID = uuidPtr(pickupID)
		st.DropoffStopID = uuidPtr(dropoffID)
		a.Student = &st
		records = append(records, a)
	}
	return records, rows.Err()
}

// scanAttendance maps a bare trip_students row (no student join) into a
// domain.Attendance.
func scanAttendance(s scanner) (domain.Attendance, error) {
	var (
		a       domain.Attendance
		tripRaw pgtype.UUID
		stuRaw  pgtype.UUID
		boarded pgtype.Timestamptz
	)

	err := s.Scan(&tripRaw, &stuRaw, &a.Status, &boarded)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Attendance{}, domain.ErrNotFound
		}
		return domain.Attendance{}, err
	}

	a.TripID = uuid.UUID(tripRaw.Bytes)
	a.StudentID = uuid.UUID(stuRaw.Bytes)
	a.BoardedAt = timePtr(boarded)
	return a, nil
}
