package availability

import (
	"context"

	"go.uber.org/zap"

	"clinicbook/internal/pkg/timegrid"
)

// Service answers "which slots can be booked" queries. It keeps no state
// between calls, so unchanged store contents always give the same answer.
type Service struct {
	resolver  *Resolver
	booked    BookedIntervals
	durations DurationSource
	log       *zap.Logger
}

func NewService(resolver *Resolver, booked BookedIntervals, durations DurationSource, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		resolver:  resolver,
		booked:    booked,
		durations: durations,
		log:       log,
	}
}

// GetAvailableSlots returns every candidate slot of the day, each marked
// available or taken.
func (s *Service) GetAvailableSlots(ctx context.Context, professionalID int64, date timegrid.Date, durationMinutes int) ([]Slot, error) {
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	windows, err := s.resolver.ResolveDayWindows(ctx, professionalID, date)
	if err != nil {
		return nil, err
	}

	slots, err := GenerateSlots(windows, durationMinutes)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return slots, nil
	}

	booked, err := s.booked.ActiveIntervals(ctx, professionalID, date)
	if err != nil {
		return nil, err
	}

	s.log.Debug("slots resolved",
		zap.Int64("professional_id", professionalID),
		zap.String("date", date.String()),
		zap.Int("windows", len(windows)),
		zap.Int("slots", len(slots)),
		zap.Int("booked", len(booked)),
	)
	return MarkAvailability(slots, booked), nil
}

// GetAvailableSlotsForService uses the service's configured duration.
func (s *Service) GetAvailableSlotsForService(ctx context.Context, tenantID, professionalID, serviceID int64, date timegrid.Date) ([]Slot, error) {
	duration, err := s.durations.ServiceDuration(ctx, tenantID, serviceID)
	if err != nil {
		return nil, err
	}
	return s.GetAvailableSlots(ctx, professionalID, date, duration)
}

// Windows exposes the resolved windows for callers that validate a request
// against availability.
func (s *Service) Windows(ctx context.Context, professionalID int64, date timegrid.Date) ([]timegrid.Interval, error) {
	return s.resolver.ResolveDayWindows(ctx, professionalID, date)
}
