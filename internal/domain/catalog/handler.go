package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"clinicbook/internal/middleware"
	"clinicbook/internal/pkg/response"
	"clinicbook/internal/pkg/validator"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// GetProfessional returns an active professional. Staff only see their tenant.
// @Summary Get professional
// @Tags Catalog - Professionals
// @Accept json
// @Produce json
// @Param id path integer true "Professional ID" example(1)
// @Success 200 {object} map[string]interface{} "Professional"
// @Failure 400 {object} map[string]interface{} "Invalid ID"
// @Failure 404 {object} map[string]interface{} "Professional not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/v1/professionals/{id} [get]
func (h *Handler) GetProfessional(c *gin.Context) {
	id, ok := pathID(c, "Invalid professional ID")
	if !ok {
		return
	}
	p, err := h.repo.GetProfessional(c.Request.Context(), c.GetInt64(middleware.CtxTenantID), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"professional": p})
}

// GetService returns an active service.
// @Summary Get service
// @Tags Catalog - Services
// @Accept json
// @Produce json
// @Param id path integer true "Service ID" example(1)
// @Success 200 {object} map[string]interface{} "Service"
// @Failure 400 {object} map[string]interface{} "Invalid ID"
// @Failure 404 {object} map[string]interface{} "Service not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/v1/services/{id} [get]
func (h *Handler) GetService(c *gin.Context) {
	id, ok := pathID(c, "Invalid service ID")
	if !ok {
		return
	}
	s, err := h.repo.GetService(c.Request.Context(), c.GetInt64(middleware.CtxTenantID), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"service": s})
}

// CreateProfessional adds a professional to the caller's tenant.
// @Summary Create professional
// @Tags Catalog - Professionals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateProfessionalRequest true "Professional data"
// @Success 201 {object} map[string]interface{} "Created professional"
// @Failure 400 {object} map[string]interface{} "Invalid request body"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Failure 403 {object} map[string]interface{} "Staff access required"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/v1/professionals [post]
func (h *Handler) CreateProfessional(c *gin.Context) {
	var req CreateProfessionalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid professional", errs)
		return
	}

	p := &Professional{
		TenantID:    c.GetInt64(middleware.CtxTenantID),
		DisplayName: req.DisplayName,
		IsActive:    true,
	}
	if err := h.repo.CreateProfessional(c.Request.Context(), p); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"professional": p})
}

// CreateService adds a service with its slot duration.
// @Summary Create service
// @Description Duration must be between 5 and 480 minutes.
// @Tags Catalog - Services
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateServiceRequest true "Service data"
// @Success 201 {object} map[string]interface{} "Created service"
// @Failure 400 {object} map[string]interface{} "Invalid request body or duration"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Failure 403 {object} map[string]interface{} "Staff access required"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/v1/services [post]
func (h *Handler) CreateService(c *gin.Context) {
	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid service", errs)
		return
	}

	s := &Service{
		TenantID:        c.GetInt64(middleware.CtxTenantID),
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		IsActive:        true,
	}
	if err := h.repo.CreateService(c.Request.Context(), s); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"service": s})
}

func pathID(c *gin.Context, msg string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", msg)
		return 0, false
	}
	return id, true
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrProfessionalNotFound), errors.Is(err, ErrServiceNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrDurationOutOfRange):
		response.Error(c, http.StatusBadRequest, "INVALID_DURATION", err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
