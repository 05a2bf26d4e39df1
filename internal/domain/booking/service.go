package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"clinicbook/internal/domain/availability"
	"clinicbook/internal/domain/catalog"
	"clinicbook/internal/pkg/timegrid"
)

// Policy decides which server-side checks guard a reservation.
type Policy struct {
	// EnforceAvailability rejects intervals outside the resolved windows.
	EnforceAvailability bool
	// RejectPast rejects intervals that start before now in tenant time.
	RejectPast bool
	// MatchServiceDuration rejects intervals whose length differs from the
	// service duration.
	MatchServiceDuration bool
}

type Options struct {
	// Location is the tenant timezone used to place dates and times.
	Location *time.Location
	// ReminderLead is how long before the start a reminder is due.
	ReminderLead time.Duration
	PublicPolicy Policy
	StaffPolicy  Policy
	Clock        Clock
	Metrics      Recorder
}

// DefaultOptions enforce availability for the public path and let staff
// book any time.
func DefaultOptions() Options {
	return Options{
		Location:     time.UTC,
		ReminderLead: 24 * time.Hour,
		PublicPolicy: Policy{EnforceAvailability: true, RejectPast: true, MatchServiceDuration: true},
		StaffPolicy:  Policy{},
		Clock:        SystemClock{},
		Metrics:      nopRecorder{},
	}
}

type Service struct {
	repo      Repository
	directory ProfessionalDirectory
	windows   WindowResolver
	locker    Locker
	events    EventSink
	opts      Options
	log       *zap.Logger
}

func NewService(
	repo Repository,
	directory ProfessionalDirectory,
	windows WindowResolver,
	locker Locker,
	events EventSink,
	opts Options,
	log *zap.Logger,
) *Service {
	if locker == nil {
		locker = NoopLocker{}
	}
	if events == nil {
		events = nopSink{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Metrics == nil {
		opts.Metrics = nopRecorder{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		directory: directory,
		windows:   windows,
		locker:    locker,
		events:    events,
		opts:      opts,
		log:       log,
	}
}

type ReserveRequest struct {
	// TenantID 0 is the public path: the professional's tenant is used.
	TenantID       int64
	ProfessionalID int64
	ServiceID      int64
	ClientRef      string
	Date           timegrid.Date
	StartTime      timegrid.TimeOfDay
	EndTime        timegrid.TimeOfDay
	Notes          string
	// Staff selects the staff policy instead of the public one.
	Staff bool
}

func (r ReserveRequest) validate() (timegrid.Interval, error) {
	if r.ProfessionalID <= 0 || r.ServiceID <= 0 {
		return timegrid.Interval{}, fmt.Errorf("%w: professional_id and service_id are required", ErrValidation)
	}
	if strings.TrimSpace(r.ClientRef) == "" {
		return timegrid.Interval{}, fmt.Errorf("%w: client_ref is required", ErrValidation)
	}
	if r.Date.IsZero() {
		return timegrid.Interval{}, fmt.Errorf("%w: date is required", ErrValidation)
	}
	return timegrid.NewInterval(r.StartTime, r.EndTime)
}

// Reserve admits a booking only when no non-cancelled booking of the same
// professional and date overlaps it. Concurrent overlapping calls commit at
// most once; the rest fail with ErrSlotConflict.
func (s *Service) Reserve(ctx context.Context, req ReserveRequest) (b *Booking, err error) {
	started := time.Now()
	defer func() {
		s.opts.Metrics.ObserveReservation(outcome(err), time.Since(started))
	}()

	interval, err := req.validate()
	if err != nil {
		return nil, err
	}

	tenantID, err := s.directory.ProfessionalTenant(ctx, req.TenantID, req.ProfessionalID)
	if err != nil {
		return nil, catalogError(err)
	}

	policy := s.opts.PublicPolicy
	if req.Staff {
		policy = s.opts.StaffPolicy
	}
	if err := s.checkService(ctx, policy, tenantID, req.ServiceID, interval); err != nil {
		return nil, err
	}
	now := s.opts.Clock.Now()
	if err := s.checkPolicy(ctx, policy, req.ProfessionalID, req.Date, interval, now); err != nil {
		return nil, err
	}

	b = &Booking{
		TenantID:       tenantID,
		ProfessionalID: req.ProfessionalID,
		ServiceID:      req.ServiceID,
		ClientRef:      strings.TrimSpace(req.ClientRef),
		Date:           req.Date,
		StartTime:      interval.Start,
		EndTime:        interval.End,
		Status:         StatusPending,
		PaymentStatus:  PaymentPending,
		Notes:          req.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	key := LockKey(req.ProfessionalID, req.Date)
	release, err := s.acquire(ctx, key)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithinUnit(ctx, key, func(uow UnitOfWork) error {
		if err := checkConflict(ctx, uow, req.ProfessionalID, req.Date, interval, 0); err != nil {
			return err
		}
		return uow.Insert(ctx, b)
	})
	release()
	if err != nil {
		s.log.Info("reservation rejected",
			zap.Int64("professional_id", req.ProfessionalID),
			zap.String("date", req.Date.String()),
			zap.String("interval", interval.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.publish(ctx, EventBookingCreated, b, now, nil)
	return b, nil
}

type TransitionRequest struct {
	// TenantID 0 skips the tenant check.
	TenantID  int64
	BookingID int64
	Action    Action
	Actor     string
	Reason    string
}

// Transition applies a lifecycle action with the booking row locked.
func (s *Service) Transition(ctx context.Context, req TransitionRequest) (b *Booking, err error) {
	defer func() {
		s.opts.Metrics.IncTransition(string(req.Action), outcome(err))
	}()

	if req.BookingID <= 0 {
		return nil, fmt.Errorf("%w: booking id is required", ErrValidation)
	}
	if _, ok := transitions[req.Action]; !ok {
		return nil, fmt.Errorf("%w: unknown action %q", ErrValidation, req.Action)
	}

	now := s.opts.Clock.Now()
	err = s.repo.WithinUnit(ctx, "", func(uow UnitOfWork) error {
		current, err := uow.GetForUpdate(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if req.TenantID != 0 && current.TenantID != req.TenantID {
			return ErrNotFound
		}

		in := TransitionInput{
			Actor:   req.Actor,
			Reason:  req.Reason,
			Now:     now,
			Started: !now.Before(current.StartsAt(s.opts.Location)),
		}
		if err := Apply(current, req.Action, in); err != nil {
			return err
		}
		if err := uow.Save(ctx, current); err != nil {
			return err
		}
		b = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, actionEvents[req.Action], b, now, nil)
	return b, nil
}

type RescheduleRequest struct {
	TenantID  int64
	BookingID int64
	Date      timegrid.Date
	StartTime timegrid.TimeOfDay
	EndTime   timegrid.TimeOfDay
	// Staff selects the staff policy instead of the public one.
	Staff bool
}

// Reschedule moves a pending or confirmed booking to a new interval and
// resets it to pending. The row is updated in place.
func (s *Service) Reschedule(ctx context.Context, req RescheduleRequest) (*Booking, error) {
	if req.BookingID <= 0 {
		return nil, fmt.Errorf("%w: booking id is required", ErrValidation)
	}
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrValidation)
	}
	interval, err := timegrid.NewInterval(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, req.TenantID, req.BookingID)
	if err != nil {
		return nil, err
	}
	if !CanReschedule(existing.Status) {
		return nil, fmt.Errorf("%w: cannot reschedule a %s booking", ErrInvalidStateTransition, existing.Status)
	}

	policy := s.opts.PublicPolicy
	if req.Staff {
		policy = s.opts.StaffPolicy
	}
	if err := s.checkService(ctx, policy, existing.TenantID, existing.ServiceID, interval); err != nil {
		return nil, err
	}
	now := s.opts.Clock.Now()
	if err := s.checkPolicy(ctx, policy, existing.ProfessionalID, req.Date, interval, now); err != nil {
		return nil, err
	}

	key := LockKey(existing.ProfessionalID, req.Date)
	release, err := s.acquire(ctx, key)
	if err != nil {
		return nil, err
	}

	var (
		moved    *Booking
		previous Booking
	)
	err = s.repo.WithinUnit(ctx, key, func(uow UnitOfWork) error {
		current, err := uow.GetForUpdate(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if !CanReschedule(current.Status) {
			return fmt.Errorf("%w: cannot reschedule a %s booking", ErrInvalidStateTransition, current.Status)
		}
		if err := checkConflict(ctx, uow, current.ProfessionalID, req.Date, interval, current.ID); err != nil {
			return err
		}

		previous = *current
		current.Date = req.Date
		current.StartTime = interval.Start
		current.EndTime = interval.End
		current.Status = StatusPending
		current.UpdatedAt = now
		if err := uow.Save(ctx, current); err != nil {
			return err
		}
		moved = current
		return nil
	})
	release()
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventBookingRescheduled, moved, now, &previous)
	return moved, nil
}

// Get returns a booking. A booking of another tenant is reported as not found.
func (s *Service) Get(ctx context.Context, tenantID, id int64) (*Booking, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: booking id is required", ErrValidation)
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenantID != 0 && b.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return b, nil
}

// checkService requires an active service of the booking's tenant.
func (s *Service) checkService(ctx context.Context, p Policy, tenantID, serviceID int64, iv timegrid.Interval) error {
	duration, err := s.directory.ServiceDuration(ctx, tenantID, serviceID)
	if err != nil {
		return catalogError(err)
	}
	if p.MatchServiceDuration && iv.Minutes() != duration {
		return fmt.Errorf("%w: interval %s does not match the %d minute service", ErrValidation, iv, duration)
	}
	return nil
}

func catalogError(err error) error {
	switch {
	case errors.Is(err, catalog.ErrProfessionalNotFound), errors.Is(err, catalog.ErrServiceNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, catalog.ErrDurationOutOfRange):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return err
}

func (s *Service) checkPolicy(ctx context.Context, p Policy, professionalID int64, date timegrid.Date, iv timegrid.Interval, now time.Time) error {
	if p.RejectPast && date.At(iv.Start, s.opts.Location).Before(now) {
		return fmt.Errorf("%w: start %s %s is in the past", ErrValidation, date, iv.Start)
	}
	if !p.EnforceAvailability {
		return nil
	}
	windows, err := s.windows.Windows(ctx, professionalID, date)
	if err != nil {
		return err
	}
	if !availability.Within(iv, windows) {
		return fmt.Errorf("%w: %s %s", ErrOutsideAvailability, date, iv)
	}
	return nil
}

func (s *Service) acquire(ctx context.Context, key string) (func(), error) {
	waitStart := time.Now()
	release, err := s.locker.Acquire(ctx, key)
	s.opts.Metrics.ObserveLockWait(time.Since(waitStart))
	if err != nil {
		return nil, fmt.Errorf("%w: acquire %s: %w", ErrTransactionFailed, key, err)
	}
	return release, nil
}

func checkConflict(ctx context.Context, uow UnitOfWork, professionalID int64, date timegrid.Date, candidate timegrid.Interval, excludeID int64) error {
	active, err := uow.ListActive(ctx, professionalID, date, excludeID)
	if err != nil {
		return err
	}
	booked := make([]timegrid.Interval, 0, len(active))
	for i := range active {
		booked = append(booked, active[i].Interval())
	}
	if hit, ok := availability.FirstConflict(candidate, booked); ok {
		return fmt.Errorf("%w: %s overlaps %s", ErrSlotConflict, candidate, hit)
	}
	return nil
}

// publish hands the event to the sink after commit. Sink failures are logged
// and never undo or fail the change.
func (s *Service) publish(ctx context.Context, t EventType, b *Booking, now time.Time, previous *Booking) {
	e := newEvent(t, b, now)
	if b.Status == StatusCancelled {
		e.Reason = b.CancellationReason
	}
	if CanReschedule(b.Status) && s.opts.ReminderLead > 0 {
		remindAt := b.StartsAt(s.opts.Location).Add(-s.opts.ReminderLead)
		if remindAt.After(now) {
			e.RemindAt = &remindAt
		}
	}
	if previous != nil {
		e.PreviousDate = &previous.Date
		e.PreviousStartTime = &previous.StartTime
		e.PreviousEndTime = &previous.EndTime
	}

	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("publish booking event",
			zap.String("type", string(t)),
			zap.Int64("booking_id", b.ID),
			zap.Error(err),
		)
	}
}

// Outcome labels for metrics.
const (
	OutcomeOK                  = "ok"
	OutcomeConflict            = "conflict"
	OutcomeOutsideAvailability = "outside_availability"
	OutcomeInvalid             = "invalid"
	OutcomeNotFound            = "not_found"
	OutcomeFailed              = "failed"
)

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrSlotConflict):
		return OutcomeConflict
	case errors.Is(err, ErrOutsideAvailability):
		return OutcomeOutsideAvailability
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidStateTransition), errors.Is(err, timegrid.ErrInvalidTimeValue):
		return OutcomeInvalid
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	default:
		return OutcomeFailed
	}
}
