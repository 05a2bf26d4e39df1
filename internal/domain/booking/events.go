package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinicbook/internal/pkg/timegrid"
)

type EventType string

const (
	EventBookingCreated     EventType = "booking.created"
	EventBookingConfirmed   EventType = "booking.confirmed"
	EventBookingCancelled   EventType = "booking.cancelled"
	EventBookingRescheduled EventType = "booking.rescheduled"
	EventBookingCompleted   EventType = "booking.completed"
	EventBookingNoShow      EventType = "booking.no_show"
)

var actionEvents = map[Action]EventType{
	ActionConfirm:  EventBookingConfirmed,
	ActionCancel:   EventBookingCancelled,
	ActionComplete: EventBookingCompleted,
	ActionNoShow:   EventBookingNoShow,
}

// Event is published after the change it describes has committed.
type Event struct {
	ID             string             `json:"id"`
	Type           EventType          `json:"type"`
	OccurredAt     time.Time          `json:"occurred_at"`
	BookingID      int64              `json:"booking_id"`
	TenantID       int64              `json:"tenant_id"`
	ProfessionalID int64              `json:"professional_id"`
	Date           timegrid.Date      `json:"date"`
	StartTime      timegrid.TimeOfDay `json:"start_time"`
	EndTime        timegrid.TimeOfDay `json:"end_time"`
	Status         Status             `json:"status"`
	Reason         string             `json:"reason,omitempty"`
	// RemindAt is set when a reminder before the appointment is still ahead.
	RemindAt *time.Time `json:"remind_at,omitempty"`

	PreviousDate      *timegrid.Date      `json:"previous_date,omitempty"`
	PreviousStartTime *timegrid.TimeOfDay `json:"previous_start_time,omitempty"`
	PreviousEndTime   *timegrid.TimeOfDay `json:"previous_end_time,omitempty"`
}

func newEvent(t EventType, b *Booking, now time.Time) Event {
	return Event{
		ID:             uuid.NewString(),
		Type:           t,
		OccurredAt:     now,
		BookingID:      b.ID,
		TenantID:       b.TenantID,
		ProfessionalID: b.ProfessionalID,
		Date:           b.Date,
		StartTime:      b.StartTime,
		EndTime:        b.EndTime,
		Status:         b.Status,
	}
}

// EventSink receives lifecycle events. Delivery is the sink's concern.
type EventSink interface {
	Publish(ctx context.Context, e Event) error
}

// MultiSink fans an event out to every sink and joins their errors.
type MultiSink []EventSink

func (m MultiSink) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes events to the application log.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Publish(_ context.Context, e Event) error {
	s.log.Info("booking event",
		zap.String("event_id", e.ID),
		zap.String("type", string(e.Type)),
		zap.Int64("booking_id", e.BookingID),
		zap.Int64("professional_id", e.ProfessionalID),
		zap.String("date", e.Date.String()),
		zap.String("interval", timegrid.Interval{Start: e.StartTime, End: e.EndTime}.String()),
		zap.String("status", string(e.Status)),
	)
	return nil
}

type nopSink struct{}

func (nopSink) Publish(context.Context, Event) error { return nil }
