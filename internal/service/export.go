package service

import (
	"context"
	"fmt"

	"github.com/schoolbus/backend/internal/domain"
	"github.com/schoolbus/backend/internal/repo"
)

// ExportService assembles a full flat export of all trips and their
// attendance, one row per attendance record.
type ExportService struct {
	trips repo.TripRepo
}

// NewExportService constructs an ExportService backed by the provided TripRepo.
func NewExportService(trips repo.TripRepo) *ExportService {
	return &ExportService{trips: trips}
}

// Export returns one ExportRow per attendance record across all trips.
// Trips with no attendance contribute one row with empty student fields.
// Always returns a non-nil slice.
func (s *ExportService) Export(ctx context.Context) ([]domain.ExportRow, error) {
	trips, err := s.trips.ListWithRelations(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	rows := []domain.ExportRow{}
	for _, trip := range trips {
		base := domain.ExportRow{
			TripID:     trip.ID.String(),
			TripDate:   trip.TripDate.Format("2006-01-02"),
			Session:    string(trip.Session),
			TripType:   string(trip.Type),
			TripStatus: string(trip.Status),
		}
		if trip.Route != nil {
			base.RouteName = trip.Route.Name
		}
		if trip.Bus != nil {
			base.BusPlate = trip.Bus.Plate
		}
		if trip.Driver != nil {
			base.DriverName = trip.Driver.Name
		}

		if len(trip.Attendance) == 0 {
			rows = append(rows, base)
			continue
		}

		for _, record := range trip.Attendance {
			row := base
			row.StudentID = record.StudentID.String()
			row.AttendanceStatus = string(record.Status)
			row.BoardedAt = record.BoardedAt
			if record.Student != nil {
				row.StudentName = record.Student.Name
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}
