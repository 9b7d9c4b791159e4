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

// StudentRepo defines the persistence operations for Students.
type StudentRepo interface {
	// Create inserts a new student and returns the persisted record.
	Create(ctx context.Context, student domain.Student) (domain.Student, error)

	// GetByID retrieves a single student by its UUID primary key.
	// Returns domain.ErrNotFound if no student with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Student, error)

	// List returns all students ordered by name.
	List(ctx context.Context) ([]domain.Student, error)

	// Update overwrites the mutable fields of an existing student and
	// returns the updated record. Returns domain.ErrNotFound if no student
	// with that ID exists.
	Update(ctx context.Context, student domain.Student) (domain.Student, error)

	// Delete removes a student by ID. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgStudentRepo is the Postgres implementation of StudentRepo.
type pgStudentRepo struct {
	db db
}

// NewStudentRepo constructs a StudentRepo backed by the provided db connection.
func NewStudentRepo(db db) StudentRepo {
	return &pgStudentRepo{db: db}
}

const studentColumns = `id, name, pickup_stop_id, dropoff_stop_id, created_at, updated_at`

func (r *pgStudentRepo) Create(ctx context.Context, student domain.Student) (domain.Student, error) {
	const q = `
		INSERT INTO students (name, pickup_stop_id, dropoff_stop_id)
		VALUES (@name, @pickup_stop_id, @dropoff_stop_id)
		RETURNING ` + studentColumns

	args := pgx.NamedArgs{
		"name":            student.Name,
		"pickup_stop_id":  student.PickupStopID, // nil becomes NULL
		"dropoff_stop_id": student.DropoffStopID,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanStudent(row)
	if err != nil {
		return domain.Student{}, fmt.Errorf("repo.StudentRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgStudentRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Student, error) {
	const q = `SELECT ` + studentColumns + ` FROM students WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanStudent(row)
	if err != nil {
		return domain.Student{}, fmt.Errorf("repo.StudentRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgStudentRepo) List(ctx context.Context) ([]domain.Student, error) {
	const q = `SELECT ` + studentColumns + ` FROM students ORDER BY name`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.StudentRepo.List: %w", err)
	}
	defer rows.Close()

	var students []domain.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.StudentRepo.List: scan: %w", err)
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.StudentRepo.List: rows: %w", err)
	}

	return students, nil
}

func (r *pgStudentRepo) Update(ctx context.Context, student domain.Student) (domain.Student, error) {
	const q = `
		UPDATE students
		SET name            = @name,
		    pickup_stop_id  = @pickup_stop_id,
		    dropoff_stop_id = @dropoff_stop_id,
		    updated_at      = now()
		WHERE id = @id
		RETURNING ` + studentColumns

	args := pgx.NamedArgs{
		"id":              student.ID,
		"name":            student.Name,
		"pickup_stop_id":  student.PickupStopID,
		"dropoff_stop_id": student.DropoffStopID,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanStudent(row)
	if err != nil {
		return domain.Student{}, fmt.Errorf("repo.StudentRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgStudentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM students WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.StudentRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.StudentRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanStudent maps a single database row into a domain.Student.
func scanStudent(s scanner) (domain.Student, error) {
	var (
		st      domain.Student
		id      pgtype.UUID
		pickup  pgtype.UUID
		dropoff pgtype.UUID
	)

	err := s.Scan(&id, &st.Name, &pickup, &dropoff, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Student{}, domain.ErrNotFound
		}
		return domain.Student{}, err
	}

	st.ID = uuid.UUID(id.Bytes)
	st.PickupStopID = uuidPtr(pickup)
	st.DropoffStopID = uuidPtr(dropoff)
	return st, nil
}
