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

// BusRepo defines the persistence operations for Buses.
type BusRepo interface {
	// Create inserts a new bus and returns the persisted record.
	// Returns domain.ErrConflict if the plate is already registered.
	Create(ctx context.Context, bus domain.Bus) (domain.Bus, error)

	// GetByID retrieves a single bus by its UUID primary key.
	// Returns domain.ErrNotFound if no bus with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Bus, error)

	// List returns all buses ordered by plate.
	List(ctx context.Context) ([]domain.Bus, error)

	// Delete removes a bus by ID. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgBusRepo is the Postgres implementation of BusRepo.
type pgBusRepo struct {
	db db
}

// NewBusRepo constructs a BusRepo backed by the provided db connection.
func NewBusRepo(db db) BusRepo {
	return &pgBusRepo{db: db}
}

func (r *pgBusRepo) Create(ctx context.Context, bus domain.Bus) (domain.Bus, error) {
	const q = `
		INSERT INTO buses (plate, capacity)
		VALUES (@plate, @capacity)
		RETURNING id, plate, capacity, created_at, updated_at`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"plate": bus.Plate, "capacity": bus.Capacity})
	result, err := scanBus(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Bus{}, fmt.Errorf("repo.BusRepo.Create: %w: plate %s is already registered", domain.ErrConflict, bus.Plate)
		}
		return domain.Bus{}, fmt.Errorf("repo.BusRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgBusRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Bus, error) {
	const q = `SELECT id, plate, capacity, created_at, updated_at FROM buses WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanBus(row)
	if err != nil {
		return domain.Bus{}, fmt.Errorf("repo.BusRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgBusRepo) List(ctx context.Context) ([]domain.Bus, error) {
	const q = `SELECT id, plate, capacity, created_at, updated_at FROM buses ORDER BY plate`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.BusRepo.List: %w", err)
	}
	defer rows.Close()

	var buses []domain.Bus
	for rows.Next() {
		b, err := scanBus(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.BusRepo.List: scan: %w", err)
		}
		buses = append(buses, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.BusRepo.List: rows: %w", err)
	}

	return buses, nil
}

func (r *pgBusRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM buses WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.BusRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.BusRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanBus maps a single database row into a domain.Bus.
func scanBus(s scanner) (domain.Bus, error) {
	var (
		b  domain.Bus
		id pgtype.UUID
	)

	err := s.Scan(&id, &b.Plate, &b.Capacity, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Bus{}, domain.ErrNotFound
		}
		return domain.Bus{}, err
	}

	b.ID = uuid.UUID(id.Bytes)
	return b, nil
}
