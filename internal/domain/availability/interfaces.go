package availability

import (
	"context"
	"time"

	"clinicbook/internal/pkg/timegrid"
)

// RuleRepository reads and writes weekly rules and date exceptions.
type RuleRepository interface {
	ListActiveRules(ctx context.Context, professionalID int64, weekday time.Weekday) ([]WeeklyRule, error)
	GetException(ctx context.Context, professionalID int64, date timegrid.Date) (*DateException, error)
	CreateRule(ctx context.Context, rule *WeeklyRule) error
	UpsertException(ctx context.Context, e *DateException) error
}

// BookedIntervals lists the intervals held by non-cancelled bookings.
type BookedIntervals interface {
	ActiveIntervals(ctx context.Context, professionalID int64, date timegrid.Date) ([]timegrid.Interval, error)
}

// DurationSource resolves a service's slot length.
type DurationSource interface {
	ServiceDuration(ctx context.Context, tenantID, serviceID int64) (int, error)
}
