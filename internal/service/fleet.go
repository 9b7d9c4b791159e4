package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/schoolbus/backend/internal/domain"
	"github.com/schoolbus/backend/internal/repo"
)

// BusService implements business logic for Bus operations.
type BusService struct {
	buses repo.BusRepo
}

// NewBusService constructs a BusService backed by the provided BusRepo.
func NewBusService(buses repo.BusRepo) *BusService {
	return &BusService{buses: buses}
}

// Create validates and persists a new bus.
func (s *BusService) Create(ctx context.Context, bus domain.Bus) (domain.Bus, error) {
	if strings.TrimSpace(bus.Plate) == "" {
		return domain.Bus{}, fmt.Errorf("%w: plate is required", domain.ErrValidation)
	}
	if bus.Capacity < 0 {
		return domain.Bus{}, fmt.Errorf("%w: capacity must not be negative", domain.ErrValidation)
	}
	result, err := s.buses.Create(ctx, bus)
	if err != nil {
		return domain.Bus{}, fmt.Errorf("service.BusService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single bus by ID.
func (s *BusService) GetByID(ctx context.Context, id uuid.UUID) (domain.Bus, error) {
	result, err := s.buses.GetByID(ctx, id)
	if err != nil {
		return domain.Bus{}, fmt.Errorf("service.BusService.GetByID: %w", err)
	}
	return result, nil
}

// List returns all buses. Always returns a non-nil slice.
func (s *BusService) List(ctx context.Context) ([]domain.Bus, error) {
	buses, err := s.buses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.BusService.List: %w", err)
	}
	if buses == nil {
		buses = []domain.Bus{}
	}
	return buses, nil
}

// Delete removes a bus by ID.
func (s *BusService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.buses.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.BusService.Delete: %w", err)
	}
	return nil
}

// RouteService implements business logic for Route operations.
type RouteService struct {
	routes repo.RouteRepo
}

// NewRouteService constructs a RouteService backed by the provided RouteRepo.
func NewRouteService(routes repo.RouteRepo) *RouteService {
	return &RouteService{routes: routes}
}

// Create validates and persists a new route with its stops.
// Stop sequence numbers are assigned from list order, starting at 1.
func (s *RouteService) Create(ctx context.Context, route domain.Route) (domain.Route, error) {
	if strings.TrimSpace(route.Name) == "" {
		return domain.Route{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	for i := range route.Stops {
		if strings.TrimSpace(route.Stops[i].Name) == "" {
			return domain.Route{}, fmt.Errorf("%w: stop name is required", domain.ErrValidation)
		}
		route.Stops[i].Seq = i + 1
	}
	result, err := s.routes.Create(ctx, route)
	if err != nil {
		return domain.Route{}, fmt.Errorf("service.RouteService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single route with its stops.
func (s *RouteService) GetByID(ctx context.Context, id uuid.UUID) (domain.Route, error) {
	result, err := s.routes.GetByID(ctx, id)
	if err != nil {
		return domain.Route{}, fmt.Errorf("service.RouteService.GetByID: %w", err)
	}
	return result, nil
}

// List returns all routes. Always returns a non-nil slice.
func (s *RouteService) List(ctx context.Context) ([]domain.Route, error) {
	routes, err := s.routes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.RouteService.List: %w", err)
	}
	if routes == nil {
		routes = []domain.Route{}
	}
	return routes, nil
}

// Delete removes a route by ID; its stops go with it.
func (s *RouteService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.routes.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.RouteService.Delete: %w", err)
	}
	return nil
}

// StudentService implements business logic for Student operations.
type StudentService struct {
	students repo.StudentRepo
}

// NewStudentService constructs a StudentService backed by the provided StudentRepo.
func NewStudentService(students repo.StudentRepo) *StudentService {
	return &StudentService{students: students}
}

// Create validates and persists a new student.
func (s *StudentService) Create(ctx context.Context, student domain.Student) (domain.Student, error) {
	if strings.TrimSpace(student.Name) == "" {
		return domain.Student{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	result, err := s.students.Create(ctx, student)
	if err != nil {
		return domain.Student{}, fmt.Errorf("service.StudentService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single student by ID.
func (s *StudentService) GetByID(ctx context.Context, id uuid.UUID) (domain.Student, error) {
	result, err := s.students.GetByID(ctx, id)
	if err != nil {
		return domain.Student{}, fmt.Errorf("service.StudentService.GetByID: %w", err)
	}
	return result, nil
}

// List returns all students. Always returns a non-nil slice.
func (s *StudentService) List(ctx context.Context) ([]domain.Student, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.StudentService.List: %w", err)
	}
	if students == nil {
		students = []domain.Student{}
	}
	return students, nil
}

// Update validates and persists changes to an existing student.
func (s *StudentService) Update(ctx context.Context, student domain.Student) (domain.Student, error) {
	if strings.TrimSpace(student.Name) == "" {
		return domain.Student{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	result, err := s.students.Update(ctx, student)
	if err != nil {
		return domain.Student{}, fmt.Errorf("service.StudentService.Update: %w", err)
	}
	return result, nil
}

// Delete removes a student by ID.
func (s *StudentService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.students.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.StudentService.Delete: %w", err)
	}
	return nil
}

// UserService implements read-mostly logic for driver and manager accounts.
// Authentication is out of scope for this backend; users exist so trips can
// reference drivers by ID.
type UserService struct {
	users repo.UserRepo
}

// NewUserService constructs a UserService backed by the provided UserRepo.
func NewUserService(users repo.UserRepo) *UserService {
	return &UserService{users: users}
}

// Create validates and persists a new user.
func (s *UserService) Create(ctx context.Context, user domain.User) (domain.User, error) {
	if strings.TrimSpace(user.Name) == "" {
		return domain.User{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if user.Role != domain.RoleDriver && user.Role != domain.RoleManager {
		return domain.User{}, fmt.Errorf("%w: role must be driver or manager", domain.ErrValidation)
	}
	result, err := s.users.Create(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single user by ID.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	result, err := s.users.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.UserService.GetByID: %w", err)
	}
	return result, nil
}

// List returns all users. Always returns a non-nil slice.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.UserService.List: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}
