package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/schoolbus/backend/internal/domain"
	"github.com/schoolbus/backend/internal/repo"
)

// maxAlerts caps the derived alert list at the most recent entries.
const maxAlerts = 50

// maxReportedDelay bounds the delay reported for trips that did eventually
// start: a gap this large means bad data (wrong planned time, trip rolled to
// the next day), not a late bus.
const maxReportedDelay = 180 * time.Minute

// AlertService derives operator-facing alerts by rescanning all trips with
// their relations on every call. Nothing is persisted and nothing is cached;
// fine at fleet scale, revisit before trip volume grows past that.
type AlertService struct {
	trips repo.TripRepo
	now   func() time.Time
}

// NewAlertService constructs an AlertService backed by the provided TripRepo.
func NewAlertService(trips repo.TripRepo) *AlertService {
	return &AlertService{trips: trips, now: time.Now}
}

// Derive loads all trips and returns the derived alert list, sorted by time
// descending and capped at maxAlerts.
func (s *AlertService) Derive(ctx context.Context) ([]domain.Alert, error) {
	trips, err := s.trips.ListWithRelations(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.AlertService.Derive: %w", err)
	}
	return DeriveAlerts(trips, s.now()), nil
}

// DeriveAlerts computes the alert list for the given trips at the given
// moment. It is a pure function: trips must arrive with route (and stops),
// bus, and attendance populated. Trips missing any optional relation simply
// contribute fewer alerts; nothing here fails.
func DeriveAlerts(trips []domain.Trip, now time.Time) []domain.Alert {
	var alerts []domain.Alert
	for _, trip := range trips {
		alerts = append(alerts, delayAlerts(trip, now)...)
		alerts = append(alerts, stopCompletionAlerts(trip)...)
		alerts = append(alerts, tripCompletionAlerts(trip)...)
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Time.After(alerts[j].Time)
	})
	if len(alerts) > maxAlerts {
		alerts = alerts[:maxAlerts]
	}
	if alerts == nil {
		alerts = []domain.Alert{}
	}
	return alerts
}

// delayAlerts reports a late departure. A trip that has started is reported
// against its actual start time, bounded by maxReportedDelay. A trip still
// scheduled past its planned start is reported against the current clock —
// deliberately unbounded, since the delay only grows until someone acts.
func delayAlerts(trip domain.Trip, now time.Time) []domain.Alert {
	if trip.PlannedStartTime == nil {
		return nil
	}
	planned := *trip.PlannedStartTime

	if trip.ActualStartTime != nil {
		late := trip.ActualStartTime.Sub(planned)
		if late > 0 && late < maxReportedDelay {
			return []domain.Alert{{
				Time:         *trip.ActualStartTime,
				Type:         domain.AlertDelay,
				Message:      fmt.Sprintf("%s khởi hành trễ %d phút", tripSubject(trip), wholeMinutes(late)),
				VehiclePlate: tripPlate(trip),
			}}
		}
		return nil
	}

	if trip.Status == domain.TripStatusScheduled && now.After(planned) {
		return []domain.Alert{{
			Time:         now,
			Type:         domain.AlertDelay,
			Message:      fmt.Sprintf("%s chưa khởi hành, trễ %d phút so với kế hoạch", tripSubject(trip), wholeMinutes(now.Sub(planned))),
			VehiclePlate: tripPlate(trip),
		}}
	}
	return nil
}

// stopTally accumulates per-stop attendance counts for one trip.
type stopTally struct {
	total    int
	attended int
	latest   time.Time
}

// stopCompletionAlerts reports stops where every assigned student has been
// picked up (pickup trips) or dropped off (dropoff trips). The tally is
// seeded from the route's stop list, so a stop with no students assigned
// never fires. The alert is timestamped at the latest boarding time seen
// for that stop; a stop whose attended records all lack a stamp stays
// silent until one arrives.
func stopCompletionAlerts(trip domain.Trip) []domain.Alert {
	if trip.Route == nil || len(trip.Route.Stops) == 0 || len(trip.Attendance) == 0 {
		return nil
	}

	tallies := make(map[uuid.UUID]*stopTally, len(trip.Route.Stops))
	for _, stop := range trip.Route.Stops {
		tallies[stop.ID] = &stopTally{}
	}

	for _, record := range trip.Attendance {
		if record.Student == nil {
			continue
		}
		stopID := record.Student.PickupStopID
		if trip.Type == domain.TripTypeDropoff {
			stopID = record.Student.DropoffStopID
		}
		if stopID == nil {
			continue
		}
		tally, ok := tallies[*stopID]
		if !ok {
			// Student assigned to a stop on some other route; not this trip's problem.
			continue
		}
		tally.total++
		if record.Status == domain.AttendanceAttended {
			tally.attended++
			if record.BoardedAt != nil && record.BoardedAt.After(tally.latest) {
				tally.latest = *record.BoardedAt
			}
		}
	}

	alertType := domain.AlertPickupComplete
	verb := "đón"
	if trip.Type == domain.TripTypeDropoff {
		alertType = domain.AlertDropoffComplete
		verb = "trả"
	}

	var alerts []domain.Alert
	for _, stop := range trip.Route.Stops {
		tally := tallies[stop.ID]
		if tally.total == 0 || tally.attended != tally.total {
			continue
		}
		if tally.latest.IsZero() {
			// Attended records without a boarded_at stamp leave the alert
			// with no time to carry; wait for a stamped record.
			continue
		}
		alerts = append(alerts, domain.Alert{
			Time:         tally.latest,
			Type:         alertType,
			Message:      fmt.Sprintf("Đã %s đủ %d học sinh tại điểm dừng %s", verb, tally.total, stop.Name),
			VehiclePlate: tripPlate(trip),
		})
	}
	return alerts
}

// tripCompletionAlerts reports trips that finished, timestamped at the
// recorded end time.
func tripCompletionAlerts(trip domain.Trip) []domain.Alert {
	if trip.Status != domain.TripStatusCompleted || trip.ActualEndTime == nil {
		return nil
	}
	return []domain.Alert{{
		Time:         *trip.ActualEndTime,
		Type:         domain.AlertTripComplete,
		Message:      fmt.Sprintf("%s đã hoàn thành chuyến đi", tripSubject(trip)),
		VehiclePlate: tripPlate(trip),
	}}
}

// tripSubject names the trip for an alert message, preferring the bus plate,
// then the route name.
func tripSubject(trip domain.Trip) string {
	if trip.Bus != nil && trip.Bus.Plate != "" {
		return "Xe " + trip.Bus.Plate
	}
	if trip.Route != nil && trip.Route.Name != "" {
		return "Tuyến " + trip.Route.Name
	}
	return "Chuyến xe"
}

// tripPlate returns the trip's bus plate, or "" when no bus is assigned.
func tripPlate(trip domain.Trip) string {
	if trip.Bus != nil {
		return trip.Bus.Plate
	}
	return ""
}

// wholeMinutes converts a duration to whole minutes, rounding halves up.
func wholeMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}
