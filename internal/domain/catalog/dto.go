package catalog

type CreateProfessionalRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=255"`
}

type CreateServiceRequest struct {
	Name            string `json:"name" validate:"required,max=255"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gte=5,lte=480"`
}
