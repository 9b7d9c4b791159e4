package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/schoolbus/backend/internal/domain"
)

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip after checking that neither its driver nor
	// its bus is already booked for the same (date, session, type) slot.
	// The check and the insert run in one transaction; the partial unique
	// indexes on trips are the backstop for concurrent writers. Returns
	// domain.ErrConflict (with a descriptive message) on a double-booking.
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// Update overwrites the mutable fields of an existing trip, re-running
	// both conflict checks with the trip itself excluded from the match set.
	// Returns domain.ErrNotFound if the trip does not exist and
	// domain.ErrConflict on a double-booking.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a bare trip row by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// GetWithRelations retrieves a trip with its route (and the route's
	// stops), bus, driver, and attendance list populated.
	GetWithRelations(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// ListPaged returns trips ordered by trip_date descending, plus the
	// total row count for pagination.
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)

	// ListWithRelations returns all trips with relations populated, ordered
	// by trip_date descending. Used by the alert deriver and the export,
	// which rescan everything on every call.
	ListWithRelations(ctx context.Context) ([]domain.Trip, error)

	// Delete removes a trip by ID. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, route_id, bus_id, driver_id, trip_date, session, trip_type, status,
		planned_start_time, actual_start_time, actual_end_time, created_at, updated_at`

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := checkSlotConflicts(ctx, tx, trip, uuid.Nil); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}

	const q = `
		INSERT INTO trips (route_id, bus_id, driver_id, trip_date, session, trip_type, status,
			planned_start_time, actual_start_time, actual_end_time)
		VALUES (@route_id, @bus_id, @driver_id, @trip_date, @session, @trip_type, @status,
			@planned_start_time, @actual_start_time, @actual_end_time)
		RETURNING ` + tripColumns

	row := tx.QueryRow(ctx, q, tripArgs(trip))
	result, err := scanTrip(row)
	if err != nil {
		if isUniqueViolation(err, "trips_driver_slot_uniq", "trips_bus_slot_uniq") {
			// A concurrent writer won the slot between our check and the
			// insert. The message is less specific than checkSlotConflicts
			// produces, but the invariant holds.
			return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w: slot was taken concurrently", domain.ErrConflict)
		}
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: commit: %w", err)
	}
	return result, nil
}

// Update overwrites the mutable fields of a trip and returns the updated record.
func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := checkSlotConflicts(ctx, tx, trip, trip.ID); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}

	const q = `
		UPDATE trips
		SET route_id           = @route_id,
		    bus_id             = @bus_id,
		    driver_id          = @driver_id,
		    trip_date          = @trip_date,
		    session            = @session,
		    trip_type          = @trip_type,
		    status             = @status,
		    planned_start_time = @planned_start_time,
		    actual_start_time  = @actual_start_time,
		    actual_end_time    = @actual_end_time,
		    updated_at         = now()
		WHERE id = @id
		RETURNING ` + tripColumns

	args := tripArgs(trip)
	args["id"] = trip.ID

	row := tx.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		if isUniqueViolation(err, "trips_driver_slot_uniq", "trips_bus_slot_uniq") {
			return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w: slot was taken concurrently", domain.ErrConflict)
		}
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: commit: %w", err)
	}
	return result, nil
}

// GetByID retrieves a bare trip row by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// GetWithRelations retrieves a trip and eagerly loads its route (with stops),
// bus, driver, and attendance records.
func (r *pgTripRepo) GetWithRelations(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	trip, err := r.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, err
	}
	if err := r.loadRelations(ctx, &trip); err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetWithRelations: %w", err)
	}
	return trip, nil
}

// ListPaged returns one page of trips ordered by trip_date descending
// (most recent first), plus the total row count.
func (r *pgTripRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	const countQ = `SELECT count(*) FROM trips`

	var total int64
	if err := r.db.QueryRow(ctx, countQ).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: count: %w", err)
	}

	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		ORDER BY trip_date DESC, created_at DESC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: rows: %w", err)
	}

	return trips, total, nil
}

// ListWithRelations returns every trip with relations populated.
// One relation-loading round trip per trip — acceptable at fleet scale
// (tens of trips per day), revisit before this grows past that.
func (r *pgTripRepo) ListWithRelations(ctx context.Context) ([]domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips ORDER BY trip_date DESC, created_at DESC`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListWithRelations: %w", err)
	}
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TripRepo.ListWithRelations: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListWithRelations: rows: %w", err)
	}

	for i := range trips {
		if err := r.loadRelations(ctx, &trips[i]); err != nil {
			return nil, fmt.Errorf("repo.TripRepo.ListWithRelations: %w", err)
		}
	}
	return trips, nil
}

// Delete removes a trip by primary key.
func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// loadRelations populates Route (with stops), Bus, Driver, and Attendance on
// the given trip. Missing optional relations are simply left nil.
func (r *pgTripRepo) loadRelations(ctx context.Context, trip *domain.Trip) error {
	if trip.RouteID != nil {
		route, err := loadRoute(ctx, r.db, *trip.RouteID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			// Route was deleted out from under the trip; treat as unset.
		case err != nil:
			return err
		default:
			trip.Route = &route
		}
	}

	if trip.BusID != nil {
		const q = `SELECT id, plate, capacity, created_at, updated_at FROM buses WHERE id = @id`
		row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": *trip.BusID})
		bus, err := scanBus(row)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return err
		default:
			trip.Bus = &bus
		}
	}

	if trip.DriverID != nil {
		const q = `SELECT id, name, phone, role, created_at FROM users WHERE id = @id`
		row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": *trip.DriverID})
		driver, err := scanUser(row)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return err
		default:
			trip.Driver = &driver
		}
	}

	attendance, err := listAttendance(ctx, r.db, trip.ID)
	if err != nil {
		return err
	}
	trip.Attendance = attendance
	return nil
}

// checkSlotConflicts fails with domain.ErrConflict if the trip's driver or
// bus already holds a non-cancelled trip in the same (date, session, type)
// slot. The driver axis is checked first and short-circuits. excludeID
// removes the trip being updated from the match set; pass uuid.Nil on create.
//
// Runs under read-committed, so two concurrent creators can both pass —
// the partial unique indexes catch that case at insert time.
func checkSlotConflicts(ctx context.Context, q db, trip domain.Trip, excludeID uuid.UUID) error {
	if trip.DriverID != nil {
		c, err := findSlotConflict(ctx, q, "driver_id", *trip.DriverID, trip, excludeID)
		if err != nil {
			return err
		}
		if c != nil {
			return fmt.Errorf("%w: driver %s is already assigned to %s on %s (%s %s)",
				domain.ErrConflict, c.describeDriver(), c.describeTrip(),
				trip.TripDate.Format("2006-01-02"), trip.Session, trip.Type)
		}
	}

	if trip.BusID != nil {
		c, err := findSlotConflict(ctx, q, "bus_id", *trip.BusID, trip, excludeID)
		if err != nil {
			return err
		}
		if c != nil {
			return fmt.Errorf("%w: bus %s is already scheduled for %s on %s (%s %s)",
				domain.ErrConflict, c.describeBus(), c.describeTrip(),
				trip.TripDate.Format("2006-01-02"), trip.Session, trip.Type)
		}
	}

	return nil
}

// slotConflict carries just enough about a conflicting trip to build an
// operator-readable error message.
type slotConflict struct {
	routeName  pgtype.Text
	busPlate   pgtype.Text
	driverName pgtype.Text
}

func (c *slotConflict) describeDriver() string {
	if c.driverName.Valid {
		return c.driverName.String
	}
	return "(unnamed)"
}

func (c *slotConflict) describeBus() string {
	if c.busPlate.Valid {
		return c.busPlate.String
	}
	return "(unplated)"
}

func (c *slotConflict) describeTrip() string {
	if c.routeName.Valid {
		return "route " + c.routeName.String
	}
	return "another trip"
}

// findSlotConflict looks for a non-cancelled trip occupying the same slot on
// the given axis (driver_id or bus_id). Returns nil when the slot is free.
func findSlotConflict(ctx context.Context, q db, axis string, holder uuid.UUID, trip domain.Trip, excludeID uuid.UUID) (*slotConflict, error) {
	// axis is one of two compile-time constants, never user input.
	query := `
		SELECT r.name, b.plate, u.name
		FROM trips t
		LEFT JOIN routes r ON r.id = t.route_id
		LEFT JOIN buses  b ON b.id = t.bus_id
		LEFT JOIN users  u ON u.id = t.driver_id
		WHERE t.` + axis + ` = @holder
		  AND t.trip_date = @trip_date
		  AND t.session   = @session
		  AND t.trip_type = @trip_type
		  AND t.status <> 'cancelled'
		  AND t.id <> @exclude_id
		LIMIT 1`

	args := pgx.NamedArgs{
		"holder":     holder,
		"trip_date":  trip.TripDate,
		"session":    trip.Session,
		"trip_type":  trip.Type,
		"exclude_id": excludeID,
	}

	var c slotConflict
	err := q.QueryRow(ctx, query, args).Scan(&c.routeName, &c.busPlate, &c.driverName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// tripArgs maps a domain.Trip onto the named insert/update arguments.
func tripArgs(trip domain.Trip) pgx.NamedArgs {
	return pgx.NamedArgs{
		"route_id":           trip.RouteID, // nil becomes NULL
		"bus_id":             trip.BusID,
		"driver_id":          trip.DriverID,
		"trip_date":          trip.TripDate,
		"session":            trip.Session,
		"trip_type":          trip.Type,
		"status":             trip.Status,
		"planned_start_time": trip.PlannedStartTime,
		"actual_start_time":  trip.ActualStartTime,
		"actual_end_time":    trip.ActualEndTime,
	}
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the nullable UUID and timestamp conversions.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t        domain.Trip
		id       pgtype.UUID
		routeID  pgtype.UUID
		busID    pgtype.UUID
		driverID pgtype.UUID
		tripDate pgtype.Date
		planned  pgtype.Timestamptz
		started  pgtype.Timestamptz
		ended    pgtype.Timestamptz
	)

	err := s.Scan(&id, &routeID, &busID, &driverID, &tripDate, &t.Session, &t.Type, &t.Status,
		&planned, &started, &ended, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.TripDate = tripDate.Time
	t.RouteID = uuidPtr(routeID)
	t.BusID = uuidPtr(busID)
	t.DriverID = uuidPtr(driverID)
	t.PlannedStartTime = timePtr(planned)
	t.ActualStartTime = timePtr(started)
	t.ActualEndTime = timePtr(ended)

	return t, nil
}

// uuidPtr converts a nullable pgtype.UUID into a *uuid.UUID.
func uuidPtr(v pgtype.UUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := uuid.UUID(v.Bytes)
	return &id
}

// timePtr converts a nullable pgtype.Timestamptz into a *time.Time.
func timePtr(v pgtype.Timestamptz) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
