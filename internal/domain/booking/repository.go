package booking

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clinicbook/internal/pkg/timegrid"
)

type bookingRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &bookingRepository{db: db}
}

type bookingModel struct {
	ID                 int64      `gorm:"column:id;primaryKey"`
	TenantID           int64      `gorm:"column:tenant_id;not null;index"`
	ProfessionalID     int64      `gorm:"column:professional_id;not null;index:idx_bookings_professional_date"`
	ServiceID          int64      `gorm:"column:service_id;not null"`
	ClientRef          string     `gorm:"column:client_ref;type:varchar(255);not null"`
	BookingDate        string     `gorm:"column:booking_date;type:varchar(10);not null;index:idx_bookings_professional_date"`
	StartMinute        int        `gorm:"column:start_minute;type:integer;not null"`
	EndMinute          int        `gorm:"column:end_minute;type:integer;not null"`
	Status             string     `gorm:"column:status;type:varchar(32);not null;index"`
	PaymentStatus      string     `gorm:"column:payment_status;type:varchar(32);not null"`
	Notes              *string    `gorm:"column:notes;type:text"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	CancelledBy        *string    `gorm:"column:cancelled_by;type:varchar(255)"`
	CancellationReason *string    `gorm:"column:cancellation_reason;type:text"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) (*Booking, error) {
	date, err := timegrid.ParseDate(m.BookingDate)
	if err != nil {
		return nil, fmt.Errorf("booking %d: %w", m.ID, err)
	}
	return &Booking{
		ID:                 m.ID,
		TenantID:           m.TenantID,
		ProfessionalID:     m.ProfessionalID,
		ServiceID:          m.ServiceID,
		ClientRef:          m.ClientRef,
		Date:               date,
		StartTime:          timegrid.TimeOfDay(m.StartMinute),
		EndTime:            timegrid.TimeOfDay(m.EndMinute),
		Status:             Status(m.Status),
		PaymentStatus:      PaymentStatus(m.PaymentStatus),
		Notes:              deref(m.Notes),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
		CancelledAt:        m.CancelledAt,
		CancelledBy:        deref(m.CancelledBy),
		CancellationReason: deref(m.CancellationReason),
	}, nil
}

func toBookingModel(b *Booking) bookingModel {
	return bookingModel{
		ID:                 b.ID,
		TenantID:           b.TenantID,
		ProfessionalID:     b.ProfessionalID,
		ServiceID:          b.ServiceID,
		ClientRef:          b.ClientRef,
		BookingDate:        b.Date.String(),
		StartMinute:        int(b.StartTime),
		EndMinute:          int(b.EndTime),
		Status:             string(b.Status),
		PaymentStatus:      string(b.PaymentStatus),
		Notes:              ptr(b.Notes),
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		CancelledAt:        b.CancelledAt,
		CancelledBy:        ptr(b.CancelledBy),
		CancellationReason: ptr(b.CancellationReason),
	}
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *bookingRepository) postgres() bool {
	return r.db.Dialector != nil && r.db.Dialector.Name() == "postgres"
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, classifyError(ctx, err)
	}
	return toDomainBooking(m)
}

// ActiveIntervals is the read path of the slot query: intervals held by
// non-cancelled bookings, ordered by start.
func (r *bookingRepository) ActiveIntervals(ctx context.Context, professionalID int64, date timegrid.Date) ([]timegrid.Interval, error) {
	type row struct {
		StartMinute int `gorm:"column:start_minute"`
		EndMinute   int `gorm:"column:end_minute"`
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Select("start_minute, end_minute").
		Where("professional_id = ? AND booking_date = ?", professionalID, date.String()).
		Where("status IN ?", timeHoldingStatuses()).
		Order("start_minute").
		Scan(&rows).Error
	if err != nil {
		return nil, classifyError(ctx, err)
	}

	out := make([]timegrid.Interval, 0, len(rows))
	for _, rw := range rows {
		out = append(out, timegrid.Interval{Start: timegrid.TimeOfDay(rw.StartMinute), End: timegrid.TimeOfDay(rw.EndMinute)})
	}
	return out, nil
}

// WithinUnit runs fn in one database transaction. On PostgreSQL a non-empty
// lockKey also takes a transaction-scoped advisory lock first, so racing
// units on the same key serialize even across instances.
func (r *bookingRepository) WithinUnit(ctx context.Context, lockKey string, fn func(uow UnitOfWork) error) error {
	pg := r.postgres()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if pg && lockKey != "" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", lockKey).Error; err != nil {
				return fmt.Errorf("advisory lock %s: %w", lockKey, err)
			}
		}
		return fn(&gormUnit{tx: tx, postgres: pg})
	})
	return classifyError(ctx, err)
}

type gormUnit struct {
	tx       *gorm.DB
	postgres bool
}

func (u *gormUnit) ListActive(ctx context.Context, professionalID int64, date timegrid.Date, excludeID int64) ([]Booking, error) {
	q := u.tx.WithContext(ctx).
		Where("professional_id = ? AND booking_date = ?", professionalID, date.String()).
		Where("status IN ?", timeHoldingStatuses())
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var rows []bookingModel
	if err := q.Order("start_minute").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]Booking, 0, len(rows))
	for _, m := range rows {
		b, err := toDomainBooking(m)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, nil
}

func (u *gormUnit) GetForUpdate(ctx context.Context, id int64) (*Booking, error) {
	q := u.tx.WithContext(ctx)
	if u.postgres {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var m bookingModel
	if err := q.Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toDomainBooking(m)
}

func (u *gormUnit) Insert(ctx context.Context, b *Booking) error {
	m := toBookingModel(b)
	if err := u.tx.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	b.ID = m.ID
	b.CreatedAt = m.CreatedAt
	b.UpdatedAt = m.UpdatedAt
	return nil
}

func (u *gormUnit) Save(ctx context.Context, b *Booking) error {
	m := toBookingModel(b)
	res := u.tx.WithContext(ctx).
		Model(&bookingModel{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{
			"booking_date":        m.BookingDate,
			"start_minute":        m.StartMinute,
			"end_minute":          m.EndMinute,
			"status":              m.Status,
			"payment_status":      m.PaymentStatus,
			"cancelled_at":        m.CancelledAt,
			"cancelled_by":        m.CancelledBy,
			"cancellation_reason": m.CancellationReason,
			"updated_at":          m.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Migrate creates the bookings table. On PostgreSQL it also installs the
// exclusion constraint that rejects overlapping active bookings of one
// professional on one date.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&bookingModel{}); err != nil {
		return fmt.Errorf("migrate bookings: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		`DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'bookings_no_overlap') THEN
		ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap EXCLUDE USING gist (
			professional_id WITH =,
			booking_date WITH =,
			int4range(start_minute, end_minute) WITH &&
		) WHERE (status <> 'cancelled');
	END IF;
END $$`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate bookings constraint: %w", err)
		}
	}
	return nil
}

// PostgreSQL error codes that matter to the reservation path.
const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
	pgSerialization      = "40001"
	pgDeadlock           = "40P01"
	pgLockNotAvailable   = "55P03"
)

// classifyError maps store errors onto the booking error kinds. Domain
// errors returned from inside a unit pass through untouched.
func classifyError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrSlotConflict, ErrInvalidStateTransition, ErrNotFound, ErrValidation, ErrOutsideAvailability, ErrTransactionFailed} {
		if errors.Is(err, known) {
			return err
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgExclusionViolation, pgErr.Code == pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrSlotConflict, pgErr.ConstraintName)
		case pgErr.Code == pgSerialization, pgErr.Code == pgDeadlock, pgErr.Code == pgLockNotAvailable,
			strings.HasPrefix(pgErr.Code, "08"):
			return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
		}
		return err
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, gorm.ErrInvalidTransaction) {
		return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy") {
		return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}
	return err
}
