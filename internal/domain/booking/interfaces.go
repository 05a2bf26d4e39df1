package booking

import (
	"context"
	"time"

	"clinicbook/internal/pkg/timegrid"
)

// Repository is the store behind reservations and lifecycle changes.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Booking, error)
	ActiveIntervals(ctx context.Context, professionalID int64, date timegrid.Date) ([]timegrid.Interval, error)
	// WithinUnit runs fn as one all-or-nothing transaction; lockKey names
	// the (professional, date) scope the unit serializes on.
	WithinUnit(ctx context.Context, lockKey string, fn func(uow UnitOfWork) error) error
}

// UnitOfWork is the transactional view handed to WithinUnit callbacks.
type UnitOfWork interface {
	// ListActive returns non-cancelled bookings; excludeID 0 excludes nothing.
	ListActive(ctx context.Context, professionalID int64, date timegrid.Date, excludeID int64) ([]Booking, error)
	GetForUpdate(ctx context.Context, id int64) (*Booking, error)
	Insert(ctx context.Context, b *Booking) error
	Save(ctx context.Context, b *Booking) error
}

// ProfessionalDirectory resolves the catalog entries a booking refers to.
// tenantID 0 accepts any tenant.
type ProfessionalDirectory interface {
	ProfessionalTenant(ctx context.Context, tenantID, professionalID int64) (int64, error)
	ServiceDuration(ctx context.Context, tenantID, serviceID int64) (int, error)
}

// WindowResolver gives the bookable windows of a professional's day.
type WindowResolver interface {
	Windows(ctx context.Context, professionalID int64, date timegrid.Date) ([]timegrid.Interval, error)
}

// Recorder receives reservation and lifecycle measurements.
type Recorder interface {
	ObserveReservation(outcome string, d time.Duration)
	ObserveLockWait(d time.Duration)
	IncTransition(action, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveReservation(string, time.Duration) {}
func (nopRecorder) ObserveLockWait(time.Duration)            {}
func (nopRecorder) IncTransition(string, string)             {}
