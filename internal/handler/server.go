// Package handler implements the HTTP handlers for the school-bus API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (trip.go, alert.go, fleet.go, ...) but all share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/schoolbus/backend/internal/domain"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.TripPatch) (domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AttachStudents(ctx context.Context, tripID uuid.UUID, studentIDs []uuid.UUID) (domain.Trip, error)
	SetAttendance(ctx context.Context, tripID, studentID uuid.UUID, status domain.AttendanceStatus) (domain.Attendance, error)
}

// AlertServicer defines the alert derivation operation the alerts handler
// depends on.
type AlertServicer interface {
	Derive(ctx context.Context) ([]domain.Alert, error)
}

// ExportServicer defines the export operation the export handler depends on.
type ExportServicer interface {
	Export(ctx context.Context) ([]domain.ExportRow, error)
}

// BusServicer defines the business operations the bus handlers depend on.
type BusServicer interface {
	Create(ctx context.Context, bus domain.Bus) (domain.Bus, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Bus, error)
	List(ctx context.Context) ([]domain.Bus, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RouteServicer defines the business operations the route handlers depend on.
type RouteServicer interface {
	Create(ctx context.Context, route domain.Route) (domain.Route, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Route, error)
	List(ctx context.Context) ([]domain.Route, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// StudentServicer defines the business operations the student handlers depend on.
type StudentServicer interface {
	Create(ctx context.Context, student domain.Student) (domain.Student, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Student, error)
	List(ctx context.Context) ([]domain.Student, error)
	Update(ctx context.Context, student domain.Student) (domain.Student, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserServicer defines the business operations the user handlers depend on.
type UserServicer interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// Server holds the handler dependencies for all API endpoints.
// Methods are in domain-specific files but all operate on this struct.
type Server struct {
	trips    TripServicer
	alerts   AlertServicer
	export   ExportServicer
	buses    BusServicer
	routes   RouteServicer
	students StudentServicer
	users    UserServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripServicer, alerts AlertServicer, export ExportServicer,
	buses BusServicer, routes RouteServicer, students StudentServicer, users UserServicer) *Server {
	return &Server{
		trips:    trips,
		alerts:   alerts,
		export:   export,
		buses:    buses,
		routes:   routes,
		students: students,
		users:    users,
	}
}
