package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolbus/backend/internal/domain"
	"github.com/schoolbus/backend/internal/repo"
	"github.com/schoolbus/backend/testutil"
)

// testRepos bundles every repo bound to one shared transaction, so a test can
// create its own drivers, buses, and routes next to the trips under test.
// The transaction is rolled back when the test finishes — free per-test
// isolation with no cleanup SQL.
type testRepos struct {
	trips      repo.TripRepo
	attendance repo.AttendanceRepo
	buses      repo.BusRepo
	routes     repo.RouteRepo
	students   repo.StudentRepo
	users      repo.UserRepo
}

// newTestRepos opens a transaction against the test database and returns
// repos backed by it. Requires TEST_DATABASE_URL to be set; skips otherwise.
func newTestRepos(t *testing.T) testRepos {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return testRepos{
		trips:      repo.NewTripRepo(tx),
		attendance: repo.NewAttendanceRepo(tx),
		buses:      repo.NewBusRepo(tx),
		routes:     repo.NewRouteRepo(tx),
		students:   repo.NewStudentRepo(tx),
		users:      repo.NewUserRepo(tx),
	}
}

// newDriver inserts a driver and returns its ID.
func newDriver(t *testing.T, r testRepos, name string) uuid.UUID {
	t.Helper()
	driver, err := r.users.Create(context.Background(), domain.User{
		Name: name, Phone: "0901234567", Role: domain.RoleDriver,
	})
	require.NoError(t, err)
	return driver.ID
}

// newBus inserts a bus and returns its ID.
func newBus(t *testing.T, r testRepos, plate string) uuid.UUID {
	t.Helper()
	bus, err := r.buses.Create(context.Background(), domain.Bus{Plate: plate, Capacity: 40})
	require.NoError(t, err)
	return bus.ID
}

// tripFixture returns a valid scheduled pickup trip for the given driver and
// bus. Callers override fields after calling.
func tripFixture(driverID, busID uuid.UUID) domain.Trip {
	return domain.Trip{
		DriverID: &driverID,
		BusID:    &busID,
		TripDate: time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
		Session:  domain.SessionMorning,
		Type:     domain.TripTypePickup,
		Status:   domain.TripStatusScheduled,
	}
}

func TestTripRepo_Create(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	driverID := newDriver(t, r, "Nguyễn Văn Nam")
	busID := newBus(t, r, "51B-12345")
	planned := time.Date(2025, 1, 13, 7, 0, 0, 0, time.UTC)

	input := tripFixture(driverID, busID)
	input.PlannedStartTime = &planned

	got, err := r.trips.Create(ctx, input)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID, "ID should be DB-generated UUID")
	require.NotNil(t, got.DriverID)
	assert.Equal(t, driverID, *got.DriverID)
	require.NotNil(t, got.BusID)
	assert.Equal(t, busID, *got.BusID)
	assert.True(t, got.TripDate.Equal(input.TripDate), "TripDate mismatch")
	assert.Equal(t, domain.SessionMorning, got.Session)
	assert.Equal(t, domain.TripTypePickup, got.Type)
	require.NotNil(t, got.PlannedStartTime)
	assert.True(t, got.PlannedStartTime.Equal(planned))
	assert.False(t, got.CreatedAt.IsZero(), "CreatedAt should be set by DB")
	assert.False(t, got.UpdatedAt.IsZero(), "UpdatedAt should be set by DB")
}

func TestTripRepo_Create_NoDriverOrBus(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	// Unassigned trips are legal — the planner fills in resources later.
	got, err := r.trips.Create(ctx, domain.Trip{
		TripDate: time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
		Session:  domain.SessionAfternoon,
		Type:     domain.TripTypeDropoff,
		Status:   domain.TripStatusScheduled,
	})

	require.NoError(t, err)
	assert.Nil(t, got.DriverID)
	assert.Nil(t, got.BusID)
}

func TestTripRepo_Create_DriverDoubleBooked(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	driverID := newDriver(t, r, "Nguyễn Văn Nam")
	busA := newBus(t, r, "51B-11111")
	busB := newBus(t, r, "51B-22222")

	_, err := r.trips.Create(ctx, tripFixture(driverID, busA))
	require.NoError(t, err)

	// Same driver, same date/session/type, different bus.
	_, err = r.trips.Create(ctx, tripFixture(driverID, busB))

	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "Nguyễn Văn Nam", "message should name the driver")
}

func TestTripRepo_Create_BusDoubleBooked(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	driverA := newDriver(t, r, "Nguyễn Văn Nam")
	driverB := newDriver(t, r, "Trần Thị Hoa")
	busID := newBus(t, r, "51B-12345")

	_, err := r.trips.Create(ctx, tripFixture(driverA, busID))
	require.NoError(t, err)

	// Same bus, same slot, different driver.
	_, err = r.trips.Create(ctx, tripFixture(driverB, busID))

	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "51B-12345", "message should name the bus plate")
}

func TestTripRepo_Create_DifferentSlotSucceeds(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	driverID := newDriver(t, r, "Nguyễn Văn Nam")
	busID := newBus(t, r, "51B-12345")

	_, err := r.trips.Create(ctx, tripFixture(driverID, busID))
	require.NoError(t, err)

	// Same driver and bus are free in the afternoon...
	afternoon := tripFixture(driverID, busID)
	afternoon.Session = domain.SessionAfternoon
	_, err = r.trips.Create(ctx, afternoon)
	require.NoError(t, err)

	// ...and for the morning dropoff leg...
	dropoff := tripFixture(driverID, busID)
	dropoff.Type = domain.TripTypeDropoff
	_, err = r.trips.Create(ctx, dropoff)
	require.NoError(t, err)

	// ...and on another day.
	nextDay := tripFixture(driverID, busID)
	nextDay.TripDate = nextDay.TripDate.AddDate(0, 0, 1)
	_, err = r.trips.Create(ctx, nextDay)
	require.NoError(t, err)
}

func TestTripRepo_Create_ConcurrentWriterHitsUniqueIndex(t *testing.T) {
	// Two writers racing for the same slot: the first holds an uncommitted
	// insert, so the second's pre-check read (read committed) sees a free
	// slot. The second insert must then block on trips_driver_slot_uniq and
	// surface domain.ErrConflict once the first writer commits. This needs
	// two real transactions, so it runs on the pool and cleans up after
	// itself instead of using the rollback harness.
	pool := testutil.NewPool(t)
	ctx := context.Background()

	driverID := uuid.New()
	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, name, role) VALUES ($1, 'Nguyễn Văn Nam', 'driver')`, driverID)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM trips WHERE driver_id = $1`, driverID)
		_, _ = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, driverID)
	})

	tripDate := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)

	firstWriter, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer firstWriter.Rollback(ctx)

	_, err = firstWriter.Exec(ctx,
		`INSERT INTO trips (driver_id, trip_date, session, trip_type, status)
		 VALUES ($1, $2, 'morning', 'pickup', 'scheduled')`, driverID, tripDate)
	require.NoError(t, err)

	trips := repo.NewTripRepo(pool)
	done := make(chan error, 1)
	go func() {
		_, err := trips.Create(ctx, domain.Trip{
			DriverID: &driverID,
			TripDate: tripDate,
			Session:  domain.SessionMorning,
			Type:     domain.TripTypePickup,
			Status:   domain.TripStatusScheduled,
		})
		done <- err
	}()

	// Give the second writer time to pass its pre-check and block on the
	// index entry, then let the first writer win.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, firstWriter.Commit(ctx))

	err = <-done
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "slot was taken concurrently",
		"conflict must come from the unique-index path, not the pre-check")
}

func TestTripRepo_Create_CancelledTripFreesSlot(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	driverID := newDriver(t, r, "Nguyễn Văn Nam")
	busID := newBus(t, r, "51B-12345")

	cancelled := tripFixture(driverID, busID)
	cancelled.Status = domain.TripStatusCancelled
	_, err := r.trips.Create(ctx, cancelled)
	require.NoError(t, err)

	// The cancelled trip no longer occupies the slot.
	_, err = r.trips.Create(ctx, tripFixture(driverID, busID))
	require.NoError(t, err)
}

func TestTripRepo_Update(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	driverID := newDriver(t, r, "Nguyễn Văn Nam")
	busID := newBus(t, r, "51B-12345")

	created, err := r.trips.Create(ctx, tripFixture(driverID, busID))
	require.NoError(t, err)

	started := time.Date(2025, 1, 13, 7, 12, 0, 0, time.UTC)
	created.Status = domain.TripStatusInProgress
	created.ActualStartTime = &started

	updated, err := r.trips.Update(ctx, created)

	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, domain.TripStatusInProgress, updated.Status)
	require.NotNil(t, updated.ActualStartTime)
	assert.True(t, updated.ActualStartTime.Equal(started))
}

func TestTripRepo_Update_KeepsOwnSlot(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	driverID := newDriver(t, r, "Nguyễn Văn Nam")
	busID := newBus(t, r, "51B-12345")

	created, err := r.trips.Create(ctx, tripFixture(driverID, busID))
	require.NoError(t, err)

	// An update that does not move the trip must not conflict with itself.
	created.Status = domain.TripStatusInProgress
	_, err = r.trips.Update(ctx, created)

	require.NoError(t, err)
}

func TestTripRepo_Update_IntoOccupiedSlotConflicts(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	driverID := newDriver(t, r, "Nguyễn Văn Nam")
	busID := newBus(t, r, "51B-12345")

	_, err := r.trips.Create(ctx, tripFixture(driverID, busID))
	require.NoError(t, err)

	afternoon := tripFixture(driverID, busID)
	afternoon.Session = domain.SessionAfternoon
	second, err := r.trips.Create(ctx, afternoon)
	require.NoError(t, err)

	// Moving the afternoon trip onto the morning slot double-books both axes.
	second.Session = domain.SessionMorning
	_, err = r.trips.Update(ctx, second)

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestTripRepo_Update_NotFound(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	ghost := tripFixture(newDriver(t, r, "Nguyễn Văn Nam"), newBus(t, r, "51B-12345"))
	ghost.ID = uuid.New()

	_, err := r.trips.Update(ctx, ghost)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_GetByID_NotFound(t *testing.T) {
	r := newTestRepos(t)

	_, err := r.trips.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_GetWithRelations(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	driverID := newDriver(t, r, "Nguyễn Văn Nam")
	busID := newBus(t, r, "51B-12345")

	route, err := r.routes.Create(ctx, domain.Route{
		Name: "Tuyến 1",
		Stops: []domain.Stop{
			{Name: "Cổng chợ", Seq: 1, Lat: 10.776, Lng: 106.7},
			{Name: "Ngã tư ga", Seq: 2, Lat: 10.78, Lng: 106.71},
		},
	})
	require.NoError(t, err)

	stopID := route.Stops[0].ID
	student, err := r.students.Create(ctx, domain.Student{Name: "An", PickupStopID: &stopID})
	require.NoError(t, err)

	input := tripFixture(driverID, busID)
	input.RouteID = &route.ID
	created, err := r.trips.Create(ctx, input)
	require.NoError(t, err)

	require.NoError(t, r.attendance.Attach(ctx, created.ID, []uuid.UUID{student.ID}))

	got, err := r.trips.GetWithRelations(ctx, created.ID)

	require.NoError(t, err)
	require.NotNil(t, got.Route)
	assert.Equal(t, "Tuyến 1", got.Route.Name)
	require.Len(t, got.Route.Stops, 2)
	assert.Equal(t, 1, got.Route.Stops[0].Seq)
	require.NotNil(t, got.Bus)
	assert.Equal(t, "51B-12345", got.Bus.Plate)
	require.NotNil(t, got.Driver)
	assert.Equal(t, "Nguyễn Văn Nam", got.Driver.Name)
	require.Len(t, got.Attendance, 1)
	assert.Equal(t, domain.AttendancePending, got.Attendance[0].Status)
	require.NotNil(t, got.Attendance[0].Student)
	assert.Equal(t, "An", got.Attendance[0].Student.Name)
}

func TestTripRepo_ListPaged(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	driverID := newDriver(t, r, "Nguyễn Văn Nam")
	busID := newBus(t, r, "51B-12345")

	for i := 0; i < 3; i++ {
		trip := tripFixture(driverID, busID)
		trip.TripDate = trip.TripDate.AddDate(0, 0, i)
		_, err := r.trips.Create(ctx, trip)
		require.NoError(t, err)
	}

	page, limit := 1, 2
	trips, total, err := r.trips.ListPaged(ctx, domain.NewPaginationParams(&page, &limit))

	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, trips, 2)
	// Ordered by trip_date descending — the latest trip comes first.
	assert.True(t, trips[0].TripDate.After(trips[1].TripDate))
}

func TestTripRepo_Delete(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	created, err := r.trips.Create(ctx, tripFixture(
		newDriver(t, r, "Nguyễn Văn Nam"), newBus(t, r, "51B-12345")))
	require.NoError(t, err)

	require.NoError(t, r.trips.Delete(ctx, created.ID))

	_, err = r.trips.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "trip should be gone after delete")
}

func TestTripRepo_Delete_NotFound(t *testing.T) {
	r := newTestRepos(t)

	err := r.trips.Delete(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
