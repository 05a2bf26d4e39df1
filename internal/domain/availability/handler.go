package availability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"clinicbook/internal/domain/catalog"
	"clinicbook/internal/middleware"
	"clinicbook/internal/pkg/response"
	"clinicbook/internal/pkg/timegrid"
	"clinicbook/internal/pkg/validator"
)

// ProfessionalLookup confirms a professional exists; tenantID 0 accepts any tenant.
type ProfessionalLookup interface {
	ProfessionalTenant(ctx context.Context, tenantID, professionalID int64) (int64, error)
}

// QueryRecorder counts slot queries by status.
type QueryRecorder interface {
	IncSlotQuery(status string)
}

type Handler struct {
	service       *Service
	rules         RuleRepository
	professionals ProfessionalLookup
	metrics       QueryRecorder
}

func NewHandler(service *Service, rules RuleRepository, professionals ProfessionalLookup, metrics QueryRecorder) *Handler {
	return &Handler{service: service, rules: rules, professionals: professionals, metrics: metrics}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/professionals/:id/slots", h.GetSlots)
}

// RegisterStaffRoutes mounts schedule management; the group must require staff.
func (h *Handler) RegisterStaffRoutes(rg *gin.RouterGroup) {
	rg.GET("/professionals/:id/windows", h.GetWindows)
	rg.POST("/professionals/:id/rules", h.CreateRule)
	rg.PUT("/professionals/:id/exceptions/:date", h.PutException)
}

type slotsResponse struct {
	ProfessionalID  int64         `json:"professional_id"`
	Date            timegrid.Date `json:"date"`
	DurationMinutes int           `json:"duration_minutes"`
	Slots           []Slot        `json:"slots"`
}

// GetSlots lists the day's candidate slots with their availability.
// @Summary List slots
// @Description Returns every slot of the day marked available or taken. The slot length comes from duration or from the service, which must belong to the professional's tenant.
// @Tags Availability
// @Produce json
// @Param id path integer true "Professional ID" example(1)
// @Param date query string true "Date (YYYY-MM-DD)" example("2025-01-06")
// @Param duration query integer false "Slot length in minutes" example(30)
// @Param service_id query integer false "Service whose duration sets the slot length" example(7)
// @Success 200 {object} map[string]interface{} "Slots of the day"
// @Failure 400 {object} map[string]interface{} "Invalid ID, date or duration"
// @Failure 404 {object} map[string]interface{} "Professional or service not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/v1/professionals/{id}/slots [get]
func (h *Handler) GetSlots(c *gin.Context) {
	professionalID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || professionalID <= 0 {
		h.fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid professional ID")
		return
	}

	date, err := timegrid.ParseDate(c.Query("date"))
	if err != nil {
		h.fail(c, http.StatusBadRequest, "INVALID_TIME", "date must be YYYY-MM-DD")
		return
	}

	ctx := c.Request.Context()
	tenantID, err := h.professionals.ProfessionalTenant(ctx, c.GetInt64(middleware.CtxTenantID), professionalID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	var (
		slots    []Slot
		duration int
	)
	switch {
	case c.Query("service_id") != "":
		serviceID, perr := strconv.ParseInt(c.Query("service_id"), 10, 64)
		if perr != nil || serviceID <= 0 {
			h.fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid service ID")
			return
		}
		// The service must belong to the professional's tenant.
		duration, err = h.service.durations.ServiceDuration(ctx, tenantID, serviceID)
		if err == nil {
			slots, err = h.service.GetAvailableSlots(ctx, professionalID, date, duration)
		}
	case c.Query("duration") != "":
		duration, err = strconv.Atoi(c.Query("duration"))
		if err != nil {
			h.fail(c, http.StatusBadRequest, "INVALID_DURATION", "duration must be a whole number of minutes")
			return
		}
		slots, err = h.service.GetAvailableSlots(ctx, professionalID, date, duration)
	default:
		h.fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "duration or service_id is required")
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.count("ok")
	response.Success(c, http.StatusOK, slotsResponse{
		ProfessionalID:  professionalID,
		Date:            date,
		DurationMinutes: duration,
		Slots:           slots,
	})
}

// GetWindows shows the resolved bookable windows of a day.
// @Summary Get day windows
// @Tags Availability - Schedule
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Professional ID" example(1)
// @Param date query string true "Date (YYYY-MM-DD)" example("2025-01-06")
// @Success 200 {object} map[string]interface{} "Resolved windows"
// @Failure 400 {object} map[string]interface{} "Invalid ID or date"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Failure 403 {object} map[string]interface{} "Staff access required"
// @Failure 404 {object} map[string]interface{} "Professional not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/v1/professionals/{id}/windows [get]
func (h *Handler) GetWindows(c *gin.Context) {
	professionalID, _, ok := h.ownedProfessional(c)
	if !ok {
		return
	}
	date, err := timegrid.ParseDate(c.Query("date"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_TIME", "date must be YYYY-MM-DD")
		return
	}

	windows, err := h.service.Windows(c.Request.Context(), professionalID, date)
	if err != nil {
		h.writeManageError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"date": date, "windows": windows})
}

// CreateRule adds a recurring weekly window.
// @Summary Create weekly rule
// @Tags Availability - Schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Professional ID" example(1)
// @Param body body CreateRuleRequest true "Weekday and window"
// @Success 201 {object} map[string]interface{} "Created rule"
// @Failure 400 {object} map[string]interface{} "Invalid request body or time"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Failure 403 {object} map[string]interface{} "Staff access required"
// @Failure 404 {object} map[string]interface{} "Professional not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/v1/professionals/{id}/rules [post]
func (h *Handler) CreateRule(c *gin.Context) {
	professionalID, tenantID, ok := h.ownedProfessional(c)
	if !ok {
		return
	}

	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid weekly rule", errs)
		return
	}
	window, err := timegrid.ParseInterval(req.StartTime, req.EndTime)
	if err != nil {
		h.writeManageError(c, err)
		return
	}

	rule := &WeeklyRule{
		TenantID:       tenantID,
		ProfessionalID: professionalID,
		DayOfWeek:      req.DayOfWeek,
		StartMinute:    window.Start,
		EndMinute:      window.End,
		IsActive:       true,
	}
	if err := h.rules.CreateRule(c.Request.Context(), rule); err != nil {
		h.writeManageError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"rule": rule})
}

// PutException creates or replaces the exception of one date.
// @Summary Set date exception
// @Description Blocks a date or overrides its window. An override needs both start_time and end_time.
// @Tags Availability - Schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Professional ID" example(1)
// @Param date path string true "Date (YYYY-MM-DD)" example("2025-01-06")
// @Param body body ExceptionRequest true "Exception data"
// @Success 200 {object} map[string]interface{} "Stored exception"
// @Failure 400 {object} map[string]interface{} "Invalid request body or date"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Failure 403 {object} map[string]interface{} "Staff access required"
// @Failure 404 {object} map[string]interface{} "Professional not found"
// @Failure 422 {object} map[string]interface{} "Invalid override window"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/v1/professionals/{id}/exceptions/{date} [put]
func (h *Handler) PutException(c *gin.Context) {
	professionalID, tenantID, ok := h.ownedProfessional(c)
	if !ok {
		return
	}
	date, err := timegrid.ParseDate(c.Param("date"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_TIME", "date must be YYYY-MM-DD")
		return
	}

	var req ExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid date exception", errs)
		return
	}

	e := &DateException{
		TenantID:       tenantID,
		ProfessionalID: professionalID,
		Date:           date.String(),
		IsAvailable:    *req.IsAvailable,
		Reason:         req.Reason,
	}
	if e.IsAvailable && (req.StartTime != "" || req.EndTime != "") {
		if req.StartTime == "" || req.EndTime == "" {
			h.writeManageError(c, fmt.Errorf("%w: override needs both start and end", ErrInvalidAvailabilityException))
			return
		}
		window, err := timegrid.ParseInterval(req.StartTime, req.EndTime)
		if err != nil {
			h.writeManageError(c, fmt.Errorf("%w: %v", ErrInvalidAvailabilityException, err))
			return
		}
		e.StartMinute, e.EndMinute = &window.Start, &window.End
	}

	if err := h.rules.UpsertException(c.Request.Context(), e); err != nil {
		h.writeManageError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exception": e})
}

// ownedProfessional checks the path professional belongs to the caller's tenant.
func (h *Handler) ownedProfessional(c *gin.Context) (int64, int64, bool) {
	professionalID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || professionalID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid professional ID")
		return 0, 0, false
	}
	tenantID, err := h.professionals.ProfessionalTenant(c.Request.Context(), c.GetInt64(middleware.CtxTenantID), professionalID)
	if err != nil {
		h.writeManageError(c, err)
		return 0, 0, false
	}
	return professionalID, tenantID, true
}

func (h *Handler) writeManageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrProfessionalNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrInvalidAvailabilityException):
		response.Error(c, http.StatusUnprocessableEntity, "INVALID_AVAILABILITY_EXCEPTION", err.Error())
	case errors.Is(err, timegrid.ErrInvalidTimeValue):
		response.Error(c, http.StatusBadRequest, "INVALID_TIME", err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidDuration), errors.Is(err, catalog.ErrDurationOutOfRange):
		h.fail(c, http.StatusBadRequest, "INVALID_DURATION", err.Error())
	case errors.Is(err, catalog.ErrProfessionalNotFound), errors.Is(err, catalog.ErrServiceNotFound):
		h.fail(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrInvalidAvailabilityException):
		h.fail(c, http.StatusUnprocessableEntity, "INVALID_AVAILABILITY_EXCEPTION", err.Error())
	case errors.Is(err, timegrid.ErrInvalidTimeValue):
		h.fail(c, http.StatusBadRequest, "INVALID_TIME", err.Error())
	default:
		_ = c.Error(err)
		h.fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func (h *Handler) fail(c *gin.Context, status int, code, message string) {
	if status >= http.StatusInternalServerError {
		h.count("error")
	} else {
		h.count("rejected")
	}
	response.Error(c, status, code, message)
}

func (h *Handler) count(status string) {
	if h.metrics != nil {
		h.metrics.IncSlotQuery(status)
	}
}
