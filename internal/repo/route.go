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

// RouteRepo defines the persistence operations for Routes and their stops.
// A route and its stops form one aggregate: stops are created with the route
// and replaced wholesale on update, never addressed individually.
type RouteRepo interface {
	// Create inserts a route and all its stops in one transaction and
	// returns the persisted aggregate.
	Create(ctx context.Context, route domain.Route) (domain.Route, error)

	// GetByID retrieves a route with its stops ordered by seq.
	// Returns domain.ErrNotFound if no route with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Route, error)

	// List returns all routes (stops included) ordered by name.
	List(ctx context.Context) ([]domain.Route, error)

	// Delete removes a route by ID; its stops cascade.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgRouteRepo is the Postgres implementation of RouteRepo.
type pgRouteRepo struct {
	db db
}

// NewRouteRepo constructs a RouteRepo backed by the provided db connection.
func NewRouteRepo(db db) RouteRepo {
	return &pgRouteRepo{db: db}
}

func (r *pgRouteRepo) Create(ctx context.Context, route domain.Route) (domain.Route, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.Create: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
		INSERT INTO routes (name)
		VALUES (@name)
		RETURNING id, name, created_at, updated_at`

	var (
		result domain.Route
		id     pgtype.UUID
	)
	if err := tx.QueryRow(ctx, q, pgx.NamedArgs{"name": route.Name}).
		Scan(&id, &result.Name, &result.CreatedAt, &result.UpdatedAt); err != nil {
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.Create: %w", err)
	}
	result.ID = uuid.UUID(id.Bytes)

	const stopQ = `
		INSERT INTO stops (route_id, name, seq, lat, lng)
		VALUES (@route_id, @name, @seq, @lat, @lng)
		RETURNING id, route_id, name, seq, lat, lng`

	for _, stop := range route.Stops {
		args := pgx.NamedArgs{
			"route_id": result.ID,
			"name":     stop.Name,
			"seq":      stop.Seq,
			"lat":      stop.Lat,
			"lng":      stop.Lng,
		}
		persisted, err := scanStop(tx.QueryRow(ctx, stopQ, args))
		if err != nil {
			return domain.Route{}, fmt.Errorf("repo.RouteRepo.Create: stop: %w", err)
		}
		result.Stops = append(result.Stops, persisted)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.Create: commit: %w", err)
	}
	return result, nil
}

func (r *pgRouteRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Route, error) {
	route, err := loadRoute(ctx, r.db, id)
	if err != nil {
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.GetByID: %w", err)
	}
	return route, nil
}

func (r *pgRouteRepo) List(ctx context.Context) ([]domain.Route, error) {
	const q = `SELECT id, name, created_at, updated_at FROM routes ORDER BY name`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.RouteRepo.List: %w", err)
	}
	defer rows.Close()

	var routes []domain.Route
	for rows.Next() {
		var (
			route domain.Route
			id    pgtype.UUID
		)
		if err := rows.Scan(&id, &route.Name, &route.CreatedAt, &route.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repo.RouteRepo.List: scan: %w", err)
		}
		route.ID = uuid.UUID(id.Bytes)
		routes = append(routes, route)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.RouteRepo.List: rows: %w", err)
	}

	for i := range routes {
		stops, err := loadStops(ctx, r.db, routes[i].ID)
		if err != nil {
			return nil, fmt.Errorf("repo.RouteRepo.List: stops: %w", err)
		}
		routes[i].Stops = stops
	}
	return routes, nil
}

func (r *pgRouteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM routes WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.RouteRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.RouteRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// loadRoute reads one route row plus its stops. Shared with the trip repo's
// relation loader.
func loadRoute(ctx context.Context, q db, id uuid.UUID) (domain.Route, error) {
	const routeQ = `SELECT id, name, created_at, updated_at FROM routes WHERE id = @id`

	var (
		route domain.Route
		rawID pgtype.UUID
	)
	err := q.QueryRow(ctx, routeQ, pgx.NamedArgs{"id": id}).
		Scan(&rawID, &route.Name, &route.CreatedAt, &route.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Route{}, domain.ErrNotFound
		}
		return domain.Route{}, err
	}
	route.ID = uuid.UUID(rawID.Bytes)

	route.Stops, err = loadStops(ctx, q, route.ID)
	if err != nil {
		return domain.Route{}, err
	}
	return route, nil
}

// loadStops reads all stops for a route ordered by seq ascending.
func loadStops(ctx context.Context, q db, routeID uuid.UUID) ([]domain.Stop, error) {
	const stopsQ = `
		SELECT id, route_id, name, seq, lat, lng
		FROM stops
		WHERE route_id = @route_id
		ORDER BY seq`

	rows, err := q.Query(ctx, stopsQ, pgx.NamedArgs{"route_id": routeID})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stops []domain.Stop
	for rows.Next() {
		stop, err := scanStop(rows)
		if err != nil {
			return nil, err
		}
		stops = append(stops, stop)
	}
	return stops, rows.Err()
}

// scanStop maps a single database row into a domain.Stop.
func scanStop(s scanner) (domain.Stop, error) {
	var (
		stop    domain.Stop
		id      pgtype.UUID
		routeID pgtype.UUID
	)

	err := s.Scan(&id, &routeID, &stop.Name, &stop.Seq, &stop.Lat, &stop.Lng)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Stop{}, domain.ErrNotFound
		}
		return domain.Stop{}, err
	}

	stop.ID = uuid.UUID(id.Bytes)
	stop.RouteID = uuid.UUID(routeID.Bytes)
	return stop, nil
}
