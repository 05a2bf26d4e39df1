package booking

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"clinicbook/internal/domain/availability"
	"clinicbook/internal/domain/catalog"
	"clinicbook/internal/pkg/timegrid"
)

func mustDate(t *testing.T, s string) timegrid.Date {
	t.Helper()
	d, err := timegrid.ParseDate(s)
	require.NoError(t, err)
	return d
}

func mustTime(t *testing.T, s string) timegrid.TimeOfDay {
	t.Helper()
	v, err := timegrid.ParseTimeOfDay(s)
	require.NoError(t, err)
	return v
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "booking.db")
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, catalog.Migrate(db))
	require.NoError(t, availability.Migrate(db))
	require.NoError(t, Migrate(db))
	return db
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *recordingSink) Publish(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) types() []EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

func (s *recordingSink) last() Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}

type testEnv struct {
	db             *gorm.DB
	repo           Repository
	slots          *availability.Service
	rules          availability.RuleRepository
	svc            *Service
	sink           *recordingSink
	now            time.Time
	professionalID int64
	serviceID      int64
}

const testTenant = int64(1)

// newTestEnv seeds a professional of tenant 1 working Mondays 09:00-12:00
// and a 30 minute service. The clock sits on Sunday 2025-01-05 08:00 UTC.
func newTestEnv(t *testing.T, locker Locker) *testEnv {
	t.Helper()
	ctx := context.Background()
	db := newTestDB(t)

	cat := catalog.NewRepository(db)
	p := &catalog.Professional{TenantID: testTenant, DisplayName: "Dr. Test", IsActive: true}
	require.NoError(t, cat.CreateProfessional(ctx, p))
	svc := &catalog.Service{TenantID: testTenant, Name: "Consultation", DurationMinutes: 30, IsActive: true}
	require.NoError(t, cat.CreateService(ctx, svc))

	rules := availability.NewRuleRepository(db)
	require.NoError(t, rules.CreateRule(ctx, &availability.WeeklyRule{
		TenantID:       testTenant,
		ProfessionalID: p.ID,
		DayOfWeek:      int(time.Monday),
		StartMinute:    mustTime(t, "09:00"),
		EndMinute:      mustTime(t, "12:00"),
		IsActive:       true,
	}))

	repo := NewRepository(db)
	slots := availability.NewService(availability.NewResolver(rules), repo, cat, nil)

	env := &testEnv{
		db:             db,
		repo:           repo,
		slots:          slots,
		rules:          rules,
		sink:           &recordingSink{},
		now:            time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC),
		professionalID: p.ID,
		serviceID:      svc.ID,
	}
	opts := DefaultOptions()
	opts.Clock = ClockFunc(func() time.Time { return env.now })
	env.svc = NewService(repo, cat, slots, locker, env.sink, opts, nil)
	return env
}

func (e *testEnv) reserve(t *testing.T, date, start, end string) (*Booking, error) {
	t.Helper()
	return e.svc.Reserve(context.Background(), ReserveRequest{
		ProfessionalID: e.professionalID,
		ServiceID:      e.serviceID,
		ClientRef:      "client-1",
		Date:           mustDate(t, date),
		StartTime:      mustTime(t, start),
		EndTime:        mustTime(t, end),
	})
}

func (e *testEnv) transition(t *testing.T, id int64, action Action) (*Booking, error) {
	t.Helper()
	return e.svc.Transition(context.Background(), TransitionRequest{
		TenantID:  testTenant,
		BookingID: id,
		Action:    action,
		Actor:     "staff:1",
	})
}

func (e *testEnv) availableMap(t *testing.T) map[string]bool {
	t.Helper()
	slots, err := e.slots.GetAvailableSlots(context.Background(), e.professionalID, mustDate(t, "2025-01-06"), 30)
	require.NoError(t, err)
	out := make(map[string]bool, len(slots))
	for _, s := range slots {
		out[s.Interval().String()] = s.Available
	}
	return out
}

func (e *testEnv) countRows(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&bookingModel{}).Count(&n).Error)
	return n
}

func TestReserveConflictAndCancelScenario(t *testing.T) {
	env := newTestEnv(t, NewMemoryLocker(time.Second))

	free := env.availableMap(t)
	require.Len(t, free, 6)
	for slot, ok := range free {
		assert.True(t, ok, slot)
	}

	b, err := env.reserve(t, "2025-01-06", "10:00", "10:30")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, PaymentPending, b.PaymentStatus)
	assert.Equal(t, testTenant, b.TenantID)
	_, err = env.transition(t, b.ID, ActionConfirm)
	require.NoError(t, err)

	taken := env.availableMap(t)
	require.Len(t, taken, 6)
	assert.False(t, taken["10:00-10:30"])
	assert.True(t, taken["09:30-10:00"])
	assert.True(t, taken["10:30-11:00"])

	_, err = env.reserve(t, "2025-01-06", "10:00", "10:30")
	assert.ErrorIs(t, err, ErrSlotConflict)
	_, err = env.reserve(t, "2025-01-06", "10:15", "10:45")
	assert.ErrorIs(t, err, ErrSlotConflict)

	adjacent, err := env.reserve(t, "2025-01-06", "10:30", "11:00")
	require.NoError(t, err)

	_, err = env.transition(t, b.ID, ActionCancel)
	require.NoError(t, err)

	freed := env.availableMap(t)
	assert.True(t, freed["10:00-10:30"])
	assert.False(t, freed["10:30-11:00"])

	again, err := env.reserve(t, "2025-01-06", "10:00", "10:30")
	require.NoError(t, err)
	assert.NotEqual(t, b.ID, again.ID)
	assert.NotEqual(t, adjacent.ID, again.ID)
}

func TestReserveConcurrentOverlapCommitsOnce(t *testing.T) {
	for name, locker := range map[string]Locker{
		"memory": NewMemoryLocker(5 * time.Second),
		"store":  NoopLocker{},
	} {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, locker)
			// Every candidate covers 10:10, so any two of them overlap.
			starts := []string{"10:00", "09:45", "10:00", "10:10", "10:00", "09:50", "10:05", "09:55"}
			date := mustDate(t, "2025-01-06")

			var (
				mu        sync.Mutex
				committed []*Booking
				conflicts int
			)
			var g errgroup.Group
			for _, start := range starts {
				startTime := mustTime(t, start)
				g.Go(func() error {
					b, err := env.svc.Reserve(context.Background(), ReserveRequest{
						ProfessionalID: env.professionalID,
						ServiceID:      env.serviceID,
						ClientRef:      "racer",
						Date:           date,
						StartTime:      startTime,
						EndTime:        startTime + 30,
					})
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						committed = append(committed, b)
					case errors.Is(err, ErrSlotConflict):
						conflicts++
					default:
						return err
					}
					return nil
				})
			}
			require.NoError(t, g.Wait())

			require.Len(t, committed, 1)
			assert.Equal(t, len(starts)-1, conflicts)
			assert.Equal(t, int64(1), env.countRows(t))
		})
	}
}

func TestRescheduleRoundTrip(t *testing.T) {
	env := newTestEnv(t, NewMemoryLocker(time.Second))
	ctx := context.Background()

	b, err := env.reserve(t, "2025-01-06", "10:00", "10:30")
	require.NoError(t, err)
	_, err = env.transition(t, b.ID, ActionConfirm)
	require.NoError(t, err)

	move := func(start, end string) *Booking {
		moved, err := env.svc.Reschedule(ctx, RescheduleRequest{
			TenantID:  testTenant,
			BookingID: b.ID,
			Date:      mustDate(t, "2025-01-06"),
			StartTime: mustTime(t, start),
			EndTime:   mustTime(t, end),
		})
		require.NoError(t, err)
		return moved
	}

	moved := move("11:00", "11:30")
	assert.Equal(t, StatusPending, moved.Status)
	assert.Equal(t, "11:00-11:30", moved.Interval().String())

	ev := env.sink.last()
	assert.Equal(t, EventBookingRescheduled, ev.Type)
	require.NotNil(t, ev.PreviousStartTime)
	assert.Equal(t, "10:00", ev.PreviousStartTime.String())

	// Overlapping its own old interval is not a conflict.
	back := move("10:00", "10:30")
	assert.Equal(t, StatusPending, back.Status)
	assert.Equal(t, "10:00-10:30", back.Interval().String())
	assert.Equal(t, b.ID, back.ID)
	assert.Equal(t, int64(1), env.countRows(t))

	stored, err := env.svc.Get(ctx, testTenant, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "10:00-10:30", stored.Interval().String())
}

func TestRescheduleRejections(t *testing.T) {
	env := newTestEnv(t, NewMemoryLocker(time.Second))
	ctx := context.Background()

	first, err := env.reserve(t, "2025-01-06", "10:00", "10:30")
	require.NoError(t, err)
	second, err := env.reserve(t, "2025-01-06", "11:00", "11:30")
	require.NoError(t, err)

	req := RescheduleRequest{
		TenantID:  testTenant,
		BookingID: second.ID,
		Date:      mustDate(t, "2025-01-06"),
		StartTime: mustTime(t, "10:15"),
		EndTime:   mustTime(t, "10:45"),
	}
	_, err = env.svc.Reschedule(ctx, req)
	assert.ErrorIs(t, err, ErrSlotConflict)

	req.StartTime, req.EndTime = mustTime(t, "13:00"), mustTime(t, "13:30")
	_, err = env.svc.Reschedule(ctx, req)
	assert.ErrorIs(t, err, ErrOutsideAvailability)

	req.Staff = true
	_, err = env.svc.Reschedule(ctx, req)
	require.NoError(t, err)

	_, err = env.transition(t, first.ID, ActionCancel)
	require.NoError(t, err)
	_, err = env.svc.Reschedule(ctx, RescheduleRequest{
		TenantID:  testTenant,
		BookingID: first.ID,
		Date:      mustDate(t, "2025-01-06"),
		StartTime: mustTime(t, "09:00"),
		EndTime:   mustTime(t, "09:30"),
	})
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestReservePolicies(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.reserve(t, "2025-01-06", "12:00", "12:30")
	assert.ErrorIs(t, err, ErrOutsideAvailability)
	_, err = env.reserve(t, "2025-01-06", "11:45", "12:15")
	assert.ErrorIs(t, err, ErrOutsideAvailability)
	_, err = env.reserve(t, "2025-01-07", "10:00", "10:30")
	assert.ErrorIs(t, err, ErrOutsideAvailability)

	// Last slot ending exactly at the window end is fine.
	_, err = env.reserve(t, "2025-01-06", "11:30", "12:00")
	require.NoError(t, err)

	_, err = env.reserve(t, "2024-12-30", "10:00", "10:30")
	assert.ErrorIs(t, err, ErrValidation)

	staff, err := env.svc.Reserve(ctx, ReserveRequest{
		TenantID:       testTenant,
		ProfessionalID: env.professionalID,
		ServiceID:      env.serviceID,
		ClientRef:      "walk-in",
		Date:           mustDate(t, "2025-01-06"),
		StartTime:      mustTime(t, "13:00"),
		EndTime:        mustTime(t, "13:45"),
		Staff:          true,
	})
	require.NoError(t, err)
	assert.Equal(t, "13:00-13:45", staff.Interval().String())

	// Staff skip availability, never conflict detection.
	_, err = env.svc.Reserve(ctx, ReserveRequest{
		TenantID:       testTenant,
		ProfessionalID: env.professionalID,
		ServiceID:      env.serviceID,
		ClientRef:      "walk-in",
		Date:           mustDate(t, "2025-01-06"),
		StartTime:      mustTime(t, "13:30"),
		EndTime:        mustTime(t, "14:00"),
		Staff:          true,
	})
	assert.ErrorIs(t, err, ErrSlotConflict)
}

func TestReserveValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.reserve(t, "2025-01-06", "10:30", "10:00")
	assert.ErrorIs(t, err, timegrid.ErrInvalidTimeValue)
	_, err = env.reserve(t, "2025-01-06", "10:00", "10:00")
	assert.ErrorIs(t, err, timegrid.ErrInvalidTimeValue)

	_, err = env.svc.Reserve(ctx, ReserveRequest{
		ProfessionalID: env.professionalID,
		ServiceID:      env.serviceID,
		ClientRef:      "  ",
		Date:           mustDate(t, "2025-01-06"),
		StartTime:      mustTime(t, "10:00"),
		EndTime:        mustTime(t, "10:30"),
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.svc.Reserve(ctx, ReserveRequest{
		ProfessionalID: 999,
		ServiceID:      env.serviceID,
		ClientRef:      "client",
		Date:           mustDate(t, "2025-01-06"),
		StartTime:      mustTime(t, "10:00"),
		EndTime:        mustTime(t, "10:30"),
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, catalog.ErrProfessionalNotFound)
	assert.Equal(t, int64(0), env.countRows(t))
}

func TestTenantIsolation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	b, err := env.reserve(t, "2025-01-06", "10:00", "10:30")
	require.NoError(t, err)

	_, err = env.svc.Get(ctx, 2, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.svc.Transition(ctx, TransitionRequest{TenantID: 2, BookingID: b.ID, Action: ActionCancel})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.svc.Reserve(ctx, ReserveRequest{
		TenantID:       2,
		ProfessionalID: env.professionalID,
		ServiceID:      env.serviceID,
		ClientRef:      "other-tenant",
		Date:           mustDate(t, "2025-01-06"),
		StartTime:      mustTime(t, "11:00"),
		EndTime:        mustTime(t, "11:30"),
		Staff:          true,
	})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := env.svc.Get(ctx, testTenant, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}

func TestReserveRejectsUnknownOrForeignService(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	foreign := &catalog.Service{TenantID: 2, Name: "Other clinic", DurationMinutes: 30, IsActive: true}
	require.NoError(t, catalog.NewRepository(env.db).CreateService(ctx, foreign))

	req := ReserveRequest{
		ProfessionalID: env.professionalID,
		ServiceID:      99999,
		ClientRef:      "client-1",
		Date:           mustDate(t, "2025-01-06"),
		StartTime:      mustTime(t, "10:00"),
		EndTime:        mustTime(t, "10:30"),
	}
	_, err := env.svc.Reserve(ctx, req)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, catalog.ErrServiceNotFound)

	req.ServiceID = foreign.ID
	_, err = env.svc.Reserve(ctx, req)
	assert.ErrorIs(t, err, ErrNotFound)

	req.TenantID, req.Staff = testTenant, true
	_, err = env.svc.Reserve(ctx, req)
	assert.ErrorIs(t, err, ErrNotFound)

	// Public bookings must span exactly the service duration.
	req.TenantID, req.Staff = 0, false
	req.ServiceID = env.serviceID
	req.StartTime, req.EndTime = mustTime(t, "09:30"), mustTime(t, "11:45")
	_, err = env.svc.Reserve(ctx, req)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, int64(0), env.countRows(t))

	// Staff may book a longer visit of their own service.
	req.TenantID, req.Staff = testTenant, true
	long, err := env.svc.Reserve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, env.serviceID, long.ServiceID)

	_, err = env.svc.Reschedule(ctx, RescheduleRequest{
		TenantID:  testTenant,
		BookingID: long.ID,
		Date:      mustDate(t, "2025-01-06"),
		StartTime: mustTime(t, "09:00"),
		EndTime:   mustTime(t, "09:45"),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTransitionsFollowTheClock(t *testing.T) {
	env := newTestEnv(t, nil)

	b, err := env.reserve(t, "2025-01-06", "10:00", "10:30")
	require.NoError(t, err)

	_, err = env.transition(t, b.ID, ActionComplete)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	_, err = env.transition(t, b.ID, ActionConfirm)
	require.NoError(t, err)
	_, err = env.transition(t, b.ID, ActionConfirm)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	_, err = env.transition(t, b.ID, ActionNoShow)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	env.now = time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	done, err := env.transition(t, b.ID, ActionComplete)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)

	_, err = env.transition(t, b.ID, ActionCancel)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	_, err = env.transition(t, 9999, ActionCancel)
	assert.ErrorIs(t, err, ErrNotFound)

	// A completed booking still holds its time.
	assert.False(t, env.availableMap(t)["10:00-10:30"])
}

func TestCancelStoresReasonAndPublishes(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	b, err := env.reserve(t, "2025-01-06", "10:00", "10:30")
	require.NoError(t, err)
	created := env.sink.last()
	assert.Equal(t, EventBookingCreated, created.Type)
	require.NotNil(t, created.RemindAt)
	assert.Equal(t, time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC), *created.RemindAt)

	cancelled, err := env.svc.Transition(ctx, TransitionRequest{
		TenantID:  testTenant,
		BookingID: b.ID,
		Action:    ActionCancel,
		Actor:     "staff:7",
		Reason:    "doctor unavailable",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	stored, err := env.svc.Get(ctx, testTenant, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "staff:7", stored.CancelledBy)
	assert.Equal(t, "doctor unavailable", stored.CancellationReason)
	require.NotNil(t, stored.CancelledAt)

	ev := env.sink.last()
	assert.Equal(t, EventBookingCancelled, ev.Type)
	assert.Equal(t, "doctor unavailable", ev.Reason)
	assert.Nil(t, ev.RemindAt)
	assert.Equal(t, []EventType{EventBookingCreated, EventBookingCancelled}, env.sink.types())
}

func TestReminderSkippedWhenLeadHasPassed(t *testing.T) {
	env := newTestEnv(t, nil)
	env.now = time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)

	_, err := env.reserve(t, "2025-01-06", "10:00", "10:30")
	require.NoError(t, err)
	assert.Nil(t, env.sink.last().RemindAt)
}

func TestSinkFailureDoesNotFailReservation(t *testing.T) {
	env := newTestEnv(t, nil)
	env.sink.err = errors.New("broker down")

	b, err := env.reserve(t, "2025-01-06", "10:00", "10:30")
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.Equal(t, int64(1), env.countRows(t))
}

type failingLocker struct{ err error }

func (l failingLocker) Acquire(context.Context, string) (func(), error) { return nil, l.err }

func TestLockFailureIsTransactionFailure(t *testing.T) {
	env := newTestEnv(t, failingLocker{err: ErrLockTimeout})

	_, err := env.reserve(t, "2025-01-06", "10:00", "10:30")
	assert.ErrorIs(t, err, ErrTransactionFailed)
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.Equal(t, int64(0), env.countRows(t))
}

type recorderStub struct {
	mu           sync.Mutex
	reservations map[string]int
	transitions  map[string]int
	lockWaits    int
}

func (r *recorderStub) ObserveReservation(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations[outcome]++
}

func (r *recorderStub) ObserveLockWait(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lockWaits++
}

func (r *recorderStub) IncTransition(action, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions[action+"/"+outcome]++
}

func TestServiceRecordsOutcomes(t *testing.T) {
	env := newTestEnv(t, NewMemoryLocker(time.Second))
	rec := &recorderStub{reservations: map[string]int{}, transitions: map[string]int{}}
	env.svc.opts.Metrics = rec

	b, err := env.reserve(t, "2025-01-06", "10:00", "10:30")
	require.NoError(t, err)
	_, _ = env.reserve(t, "2025-01-06", "10:00", "10:30")
	_, _ = env.reserve(t, "2025-01-06", "13:00", "13:30")
	_, _ = env.transition(t, b.ID, ActionComplete)

	assert.Equal(t, 1, rec.reservations[OutcomeOK])
	assert.Equal(t, 1, rec.reservations[OutcomeConflict])
	assert.Equal(t, 1, rec.reservations[OutcomeOutsideAvailability])
	assert.Equal(t, 2, rec.lockWaits)
	assert.Equal(t, 1, rec.transitions["complete/invalid"])
}

func TestOnlyCancelledBookingsFreeTheirTime(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	date := mustDate(t, "2025-01-06")
	start := mustTime(t, "09:00")

	for i, s := range statuses {
		b := &Booking{
			TenantID:       testTenant,
			ProfessionalID: 1,
			ServiceID:      1,
			ClientRef:      "client-" + string(s),
			Date:           date,
			StartTime:      start + timegrid.TimeOfDay(i*30),
			EndTime:        start + timegrid.TimeOfDay(i*30+30),
			Status:         s,
			PaymentStatus:  PaymentPending,
		}
		require.NoError(t, repo.WithinUnit(ctx, "", func(uow UnitOfWork) error {
			return uow.Insert(ctx, b)
		}))
	}

	held, err := repo.ActiveIntervals(ctx, 1, date)
	require.NoError(t, err)
	got := make([]string, 0, len(held))
	for _, iv := range held {
		got = append(got, iv.String())
	}
	// 10:30-11:00 is the cancelled one.
	assert.Equal(t, []string{"09:00-09:30", "09:30-10:00", "10:00-10:30", "11:00-11:30"}, got)

	require.NoError(t, repo.WithinUnit(ctx, "", func(uow UnitOfWork) error {
		active, err := uow.ListActive(ctx, 1, date, 0)
		require.NoError(t, err)
		for _, b := range active {
			assert.True(t, b.Status.HoldsTime(), b.Status)
		}
		assert.Len(t, active, 4)
		return nil
	}))
}
