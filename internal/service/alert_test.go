package service_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolbus/backend/internal/domain"
	"github.com/schoolbus/backend/internal/service"
)

// ---- fixtures --------------------------------------------------------------

// ts builds a timestamp on a fixed test day.
func ts(hour, min int) time.Time {
	return time.Date(2025, 1, 13, hour, min, 0, 0, time.UTC)
}

func timeRef(t time.Time) *time.Time { return &t }

// busFixture returns a bus for alert subjects.
func busFixture() *domain.Bus {
	return &domain.Bus{ID: uuid.New(), Plate: "51B-12345", Capacity: 40}
}

// pickupTrip returns a pickup trip with one route stop and n students
// assigned to that stop, all pending.
func pickupTrip(n int) domain.Trip {
	routeID := uuid.New()
	stopID := uuid.New()
	trip := domain.Trip{
		ID:       uuid.New(),
		TripDate: ts(0, 0),
		Session:  domain.SessionMorning,
		Type:     domain.TripTypePickup,
		Status:   domain.TripStatusInProgress,
		Bus:      busFixture(),
		Route: &domain.Route{
			ID:    routeID,
			Name:  "Tuyến 1",
			Stops: []domain.Stop{{ID: stopID, RouteID: routeID, Name: "Cổng chợ", Seq: 1}},
		},
	}
	for i := 0; i < n; i++ {
		studentID := uuid.New()
		trip.Attendance = append(trip.Attendance, domain.Attendance{
			TripID:    trip.ID,
			StudentID: studentID,
			Status:    domain.AttendancePending,
			Student:   &domain.Student{ID: studentID, Name: fmt.Sprintf("Student %d", i), PickupStopID: &stopID},
		})
	}
	return trip
}

// ---- delay -----------------------------------------------------------------

func TestDeriveAlerts_Delay_StartedLate(t *testing.T) {
	trip := domain.Trip{
		ID:               uuid.New(),
		Status:           domain.TripStatusInProgress,
		Bus:              busFixture(),
		PlannedStartTime: timeRef(ts(7, 0)),
		ActualStartTime:  timeRef(ts(7, 12)),
	}

	alerts := service.DeriveAlerts([]domain.Trip{trip}, ts(8, 0))

	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertDelay, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "12 phút")
	assert.True(t, alerts[0].Time.Equal(ts(7, 12)), "alert should carry the actual start time")
	assert.Equal(t, "51B-12345", alerts[0].VehiclePlate)
}

func TestDeriveAlerts_Delay_OnTimeOrEarly_NoAlert(t *testing.T) {
	onTime := domain.Trip{
		ID:               uuid.New(),
		PlannedStartTime: timeRef(ts(7, 0)),
		ActualStartTime:  timeRef(ts(7, 0)),
	}
	early := domain.Trip{
		ID:               uuid.New(),
		PlannedStartTime: timeRef(ts(7, 0)),
		ActualStartTime:  timeRef(ts(6, 55)),
	}

	alerts := service.DeriveAlerts([]domain.Trip{onTime, early}, ts(8, 0))

	assert.Empty(t, alerts)
}

func TestDeriveAlerts_Delay_HugeGapIgnored(t *testing.T) {
	// A 3-hour-plus gap means bad data, not a late bus.
	trip := domain.Trip{
		ID:               uuid.New(),
		PlannedStartTime: timeRef(ts(7, 0)),
		ActualStartTime:  timeRef(ts(10, 0)),
	}

	alerts := service.DeriveAlerts([]domain.Trip{trip}, ts(11, 0))

	assert.Empty(t, alerts)
}

func TestDeriveAlerts_Delay_StillScheduledPastPlan(t *testing.T) {
	trip := domain.Trip{
		ID:               uuid.New(),
		Status:           domain.TripStatusScheduled,
		Bus:              busFixture(),
		PlannedStartTime: timeRef(ts(7, 0)),
	}
	now := ts(7, 25)

	alerts := service.DeriveAlerts([]domain.Trip{trip}, now)

	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertDelay, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "25 phút")
	assert.True(t, alerts[0].Time.Equal(now), "alert should carry the current time")
}

func TestDeriveAlerts_Delay_StillScheduledPastPlan_NoUpperBound(t *testing.T) {
	// Unlike the started-late branch, a trip that never left keeps alerting
	// however large the gap grows.
	trip := domain.Trip{
		ID:               uuid.New(),
		Status:           domain.TripStatusScheduled,
		PlannedStartTime: timeRef(ts(7, 0)),
	}
	now := ts(13, 0) // six hours late

	alerts := service.DeriveAlerts([]domain.Trip{trip}, now)

	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].Message, "360 phút")
}

func TestDeriveAlerts_Delay_CancelledTripPastPlan_NoAlert(t *testing.T) {
	trip := domain.Trip{
		ID:               uuid.New(),
		Status:           domain.TripStatusCancelled,
		PlannedStartTime: timeRef(ts(7, 0)),
	}

	alerts := service.DeriveAlerts([]domain.Trip{trip}, ts(9, 0))

	assert.Empty(t, alerts)
}

// ---- stop completion -------------------------------------------------------

func TestDeriveAlerts_PickupComplete_AllAttended(t *testing.T) {
	trip := pickupTrip(3)
	t1, t2, t3 := ts(6, 40), ts(6, 45), ts(6, 50)
	for i, stamp := range []time.Time{t1, t2, t3} {
		trip.Attendance[i].Status = domain.AttendanceAttended
		trip.Attendance[i].BoardedAt = timeRef(stamp)
	}

	alerts := service.DeriveAlerts([]domain.Trip{trip}, ts(8, 0))

	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertPickupComplete, alerts[0].Type)
	assert.True(t, alerts[0].Time.Equal(t3), "alert should carry the latest boarding time")
	assert.Contains(t, alerts[0].Message, "Cổng chợ")
}

func TestDeriveAlerts_PickupComplete_WithoutStamps_NoAlert(t *testing.T) {
	trip := pickupTrip(2)
	for i := range trip.Attendance {
		trip.Attendance[i].Status = domain.AttendanceAttended
		// No BoardedAt — everyone marked attended but nothing stamped.
	}

	alerts := service.DeriveAlerts([]domain.Trip{trip}, ts(8, 0))

	assert.Empty(t, alerts, "a completion alert needs a boarding time to carry")
}

func TestDeriveAlerts_PickupIncomplete_NoAlert(t *testing.T) {
	trip := pickupTrip(3)
	trip.Attendance[0].Status = domain.AttendanceAttended
	trip.Attendance[0].BoardedAt = timeRef(ts(6, 40))
	// Two students still pending.

	alerts := service.DeriveAlerts([]domain.Trip{trip}, ts(8, 0))

	assert.Empty(t, alerts)
}

func TestDeriveAlerts_StopWithNoStudents_NoAlert(t *testing.T) {
	trip := pickupTrip(0)
	// Route has one stop, but no attendance at all — deriver skips the trip.
	alerts := service.DeriveAlerts([]domain.Trip{trip}, ts(8, 0))
	assert.Empty(t, alerts)

	// With attendance present but every student assigned elsewhere, the
	// seeded stop stays at zero and still must not fire.
	trip = pickupTrip(1)
	otherStop := uuid.New()
	trip.Attendance[0].Student.PickupStopID = &otherStop
	trip.Attendance[0].Status = domain.AttendanceAttended
	trip.Attendance[0].BoardedAt = timeRef(ts(6, 40))

	alerts = service.DeriveAlerts([]domain.Trip{trip}, ts(8, 0))
	assert.Empty(t, alerts)
}

func TestDeriveAlerts_DropoffComplete_UsesDropoffStop(t *testing.T) {
	routeID := uuid.New()
	stopID := uuid.New()
	studentID := uuid.New()
	stamp := ts(16, 30)
	trip := domain.Trip{
		ID:       uuid.New(),
		TripDate: ts(0, 0),
		Session:  domain.SessionAfternoon,
		Type:     domain.TripTypeDropoff,
		Status:   domain.TripStatusInProgress,
		Route: &domain.Route{
			ID:    routeID,
			Name:  "Tuyến 2",
			Stops: []domain.Stop{{ID: stopID, RouteID: routeID, Name: "Ngã tư ga", Seq: 1}},
		},
		Attendance: []domain.Attendance{{
			TripID:    uuid.New(),
			StudentID: studentID,
			Status:    domain.AttendanceAttended,
			BoardedAt: timeRef(stamp),
			Student:   &domain.Student{ID: studentID, Name: "An", DropoffStopID: &stopID},
		}},
	}

	alerts := service.DeriveAlerts([]domain.Trip{trip}, ts(18, 0))

	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertDropoffComplete, alerts[0].Type)
	assert.True(t, alerts[0].Time.Equal(stamp))
}

// ---- trip completion -------------------------------------------------------

func TestDeriveAlerts_TripComplete(t *testing.T) {
	end := ts(8, 5)
	trip := domain.Trip{
		ID:            uuid.New(),
		Status:        domain.TripStatusCompleted,
		Bus:           busFixture(),
		ActualEndTime: timeRef(end),
	}

	alerts := service.DeriveAlerts([]domain.Trip{trip}, ts(9, 0))

	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertTripComplete, alerts[0].Type)
	assert.True(t, alerts[0].Time.Equal(end))
}

func TestDeriveAlerts_CompletedWithoutEndTime_NoAlert(t *testing.T) {
	trip := domain.Trip{ID: uuid.New(), Status: domain.TripStatusCompleted}

	alerts := service.DeriveAlerts([]domain.Trip{trip}, ts(9, 0))

	assert.Empty(t, alerts)
}

// ---- ordering and cap ------------------------------------------------------

func TestDeriveAlerts_SortedDescendingAndCapped(t *testing.T) {
	// 60 completed trips, each ending a minute after the previous one.
	var trips []domain.Trip
	for i := 0; i < 60; i++ {
		trips = append(trips, domain.Trip{
			ID:            uuid.New(),
			Status:        domain.TripStatusCompleted,
			ActualEndTime: timeRef(ts(6, 0).Add(time.Duration(i) * time.Minute)),
		})
	}

	alerts := service.DeriveAlerts(trips, ts(12, 0))

	require.Len(t, alerts, 50, "list must be capped at 50")
	for i := 1; i < len(alerts); i++ {
		assert.False(t, alerts[i].Time.After(alerts[i-1].Time),
			"alerts must be sorted by time descending")
	}
	// The most recent alert survives the cap.
	assert.True(t, alerts[0].Time.Equal(ts(6, 59)))
}

func TestDeriveAlerts_MissingRelations_Tolerated(t *testing.T) {
	// No route, no bus, no students, no times — nothing to report, no panic.
	bare := domain.Trip{
		ID:       uuid.New(),
		TripDate: ts(0, 0),
		Session:  domain.SessionMorning,
		Type:     domain.TripTypePickup,
		Status:   domain.TripStatusScheduled,
	}

	alerts := service.DeriveAlerts([]domain.Trip{bare}, ts(9, 0))

	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

func TestDeriveAlerts_NoTrips_EmptyNotNil(t *testing.T) {
	alerts := service.DeriveAlerts(nil, ts(9, 0))

	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}
