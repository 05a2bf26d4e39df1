package booking

import (
	"time"

	"clinicbook/internal/pkg/timegrid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// Terminal states accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// HoldsTime reports whether a booking in this state blocks its interval.
// Only cancellation frees the time.
func (s Status) HoldsTime() bool {
	return s != StatusCancelled
}

var statuses = []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow}

// timeHoldingStatuses lists the stored values of states that block their interval.
func timeHoldingStatuses() []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		if s.HoldsTime() {
			out = append(out, string(s))
		}
	}
	return out
}

// PaymentStatus is tracked apart from Status: a confirmed booking may still
// be unpaid when the tenant takes payment at the clinic.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentWaived   PaymentStatus = "waived"
)

type Booking struct {
	ID             int64              `json:"id"`
	TenantID       int64              `json:"tenant_id"`
	ProfessionalID int64              `json:"professional_id"`
	ServiceID      int64              `json:"service_id"`
	ClientRef      string             `json:"client_ref"`
	Date           timegrid.Date      `json:"date"`
	StartTime      timegrid.TimeOfDay `json:"start_time"`
	EndTime        timegrid.TimeOfDay `json:"end_time"`
	Status         Status             `json:"status"`
	PaymentStatus  PaymentStatus      `json:"payment_status"`
	Notes          string             `json:"notes,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	CancelledAt    *time.Time         `json:"cancelled_at,omitempty"`
	CancelledBy    string             `json:"cancelled_by,omitempty"`

	CancellationReason string `json:"cancellation_reason,omitempty"`
}

func (b *Booking) Interval() timegrid.Interval {
	return timegrid.Interval{Start: b.StartTime, End: b.EndTime}
}

// StartsAt places the appointment start in the tenant's location.
func (b *Booking) StartsAt(loc *time.Location) time.Time {
	return b.Date.At(b.StartTime, loc)
}
