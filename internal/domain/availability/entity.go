package availability

import (
	"fmt"
	"time"

	"clinicbook/internal/pkg/timegrid"
)

// WeeklyRule is one recurring bookable block of a professional.
type WeeklyRule struct {
	ID             int64              `json:"id" gorm:"primaryKey"`
	TenantID       int64              `json:"tenant_id" gorm:"not null;index"`
	ProfessionalID int64              `json:"professional_id" gorm:"not null;index:idx_weekly_rules_professional_day"`
	DayOfWeek      int                `json:"day_of_week" gorm:"not null;index:idx_weekly_rules_professional_day"` // 0=Sunday
	StartMinute    timegrid.TimeOfDay `json:"start_time" gorm:"column:start_minute;not null"`
	EndMinute      timegrid.TimeOfDay `json:"end_time" gorm:"column:end_minute;not null"`
	IsActive       bool               `json:"is_active" gorm:"not null;default:true"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func (WeeklyRule) TableName() string { return "weekly_rules" }

func (r WeeklyRule) Window() (timegrid.Interval, error) {
	w, err := timegrid.NewInterval(r.StartMinute, r.EndMinute)
	if err != nil {
		return timegrid.Interval{}, fmt.Errorf("weekly rule %d: %w", r.ID, err)
	}
	return w, nil
}

// DateException overrides or blocks the weekly rules of one date.
type DateException struct {
	ID             int64               `json:"id" gorm:"primaryKey"`
	TenantID       int64               `json:"tenant_id" gorm:"not null;index"`
	ProfessionalID int64               `json:"professional_id" gorm:"not null;uniqueIndex:idx_date_exceptions_professional_date"`
	Date           string              `json:"date" gorm:"column:exception_date;type:varchar(10);not null;uniqueIndex:idx_date_exceptions_professional_date"`
	IsAvailable    bool                `json:"is_available" gorm:"not null"`
	StartMinute    *timegrid.TimeOfDay `json:"start_time,omitempty" gorm:"column:start_minute"`
	EndMinute      *timegrid.TimeOfDay `json:"end_time,omitempty" gorm:"column:end_minute"`
	Reason         string              `json:"reason,omitempty" gorm:"type:text"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func (DateException) TableName() string { return "date_exceptions" }

// HasOverride reports whether the exception carries its own window.
func (e DateException) HasOverride() bool {
	return e.StartMinute != nil || e.EndMinute != nil
}

// Override returns the replacement window; both bounds must be set and ordered.
func (e DateException) Override() (timegrid.Interval, error) {
	if e.StartMinute == nil || e.EndMinute == nil {
		return timegrid.Interval{}, fmt.Errorf("%w: override needs both start and end", ErrInvalidAvailabilityException)
	}
	w, err := timegrid.NewInterval(*e.StartMinute, *e.EndMinute)
	if err != nil {
		return timegrid.Interval{}, fmt.Errorf("%w: %v", ErrInvalidAvailabilityException, err)
	}
	return w, nil
}

// Slot is a derived candidate appointment; it is never stored.
type Slot struct {
	Start     timegrid.TimeOfDay `json:"start_time"`
	End       timegrid.TimeOfDay `json:"end_time"`
	Available bool               `json:"available"`
}

func (s Slot) Interval() timegrid.Interval {
	return timegrid.Interval{Start: s.Start, End: s.End}
}
