package booking

import "clinicbook/internal/pkg/timegrid"

type CreateBookingRequest struct {
	ProfessionalID int64  `json:"professional_id" validate:"required,gt=0"`
	ServiceID      int64  `json:"service_id" validate:"required,gt=0"`
	ClientRef      string `json:"client_ref" validate:"required,max=255"`
	Date           string `json:"date" validate:"required,isodate"`
	StartTime      string `json:"start_time" validate:"required,clock"`
	EndTime        string `json:"end_time" validate:"required,clock"`
	Notes          string `json:"notes" validate:"max=2000"`
}

type TransitionBody struct {
	Action string `json:"action" validate:"required"`
	Reason string `json:"reason" validate:"max=1000"`
}

type RescheduleBody struct {
	Date      string `json:"date" validate:"required,isodate"`
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" validate:"required,clock"`
}

// parseWhen turns wire strings into a date and a validated interval.
func parseWhen(date, start, end string) (timegrid.Date, timegrid.Interval, error) {
	d, err := timegrid.ParseDate(date)
	if err != nil {
		return timegrid.Date{}, timegrid.Interval{}, err
	}
	iv, err := timegrid.ParseInterval(start, end)
	if err != nil {
		return timegrid.Date{}, timegrid.Interval{}, err
	}
	return d, iv, nil
}
