package catalog

import "time"

// Service duration bounds, in minutes.
const (
	MinServiceDuration = 5
	MaxServiceDuration = 480
)

// Professional is a bookable person inside a tenant (doctor, therapist, ...).
type Professional struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	TenantID    int64     `json:"tenant_id" gorm:"not null;index"`
	DisplayName string    `json:"display_name" gorm:"type:varchar(255);not null"`
	IsActive    bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Professional) TableName() string { return "professionals" }

// Service is an offering whose duration quantizes the slot grid.
type Service struct {
	ID              int64     `json:"id" gorm:"primaryKey"`
	TenantID        int64     `json:"tenant_id" gorm:"not null;index"`
	Name            string    `json:"name" gorm:"type:varchar(255);not null"`
	DurationMinutes int       `json:"duration_minutes" gorm:"not null"`
	IsActive        bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Service) TableName() string { return "services" }

// ValidateDuration checks the service duration bound.
func ValidateDuration(minutes int) error {
	if minutes < MinServiceDuration || minutes > MaxServiceDuration {
		return ErrDurationOutOfRange
	}
	return nil
}
