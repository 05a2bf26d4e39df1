package availability

type CreateRuleRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"gte=0,lte=6"`
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" validate:"required,clock"`
}

// ExceptionRequest blocks a date (is_available=false) or replaces its
// windows with start_time..end_time.
type ExceptionRequest struct {
	IsAvailable *bool  `json:"is_available" validate:"required"`
	StartTime   string `json:"start_time" validate:"omitempty,clock"`
	EndTime     string `json:"end_time" validate:"omitempty,clock"`
	Reason      string `json:"reason" validate:"max=500"`
}
