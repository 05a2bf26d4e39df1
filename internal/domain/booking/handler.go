package booking

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"clinicbook/internal/domain/availability"
	"clinicbook/internal/middleware"
	"clinicbook/internal/pkg/response"
	"clinicbook/internal/pkg/timegrid"
	"clinicbook/internal/pkg/validator"
)

// SlotConflictMessage is what clients show when their slot was taken.
const SlotConflictMessage = "This time is no longer available, please choose another"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateBooking reserves a slot. Staff tokens book under the staff policy
// and their own tenant; anonymous and client requests use the public policy.
// @Summary Create booking
// @Description Reserves an interval for a professional. Overlapping active bookings are rejected with 409.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param body body CreateBookingRequest true "Booking data"
// @Success 201 {object} map[string]interface{} "Created booking"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 404 {object} map[string]interface{} "Professional or service not found"
// @Failure 409 {object} map[string]interface{} "Slot already taken"
// @Failure 422 {object} map[string]interface{} "Outside availability"
// @Failure 503 {object} map[string]interface{} "Temporary failure, retry"
// @Router /api/v1/bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking request", errs)
		return
	}

	date, iv, err := parseWhen(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		writeError(c, err)
		return
	}

	in := ReserveRequest{
		ProfessionalID: req.ProfessionalID,
		ServiceID:      req.ServiceID,
		ClientRef:      req.ClientRef,
		Date:           date,
		StartTime:      iv.Start,
		EndTime:        iv.End,
		Notes:          req.Notes,
	}
	if middleware.IsStaff(c) {
		in.Staff = true
		in.TenantID = c.GetInt64(middleware.CtxTenantID)
	}

	b, err := h.service.Reserve(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

// GetBooking returns a booking of the caller's tenant.
// @Summary Get booking
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Booking ID" example(1)
// @Success 200 {object} map[string]interface{} "Booking"
// @Failure 400 {object} map[string]interface{} "Invalid ID"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Failure 403 {object} map[string]interface{} "Staff access required"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Router /api/v1/bookings/{id} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	b, err := h.service.Get(c.Request.Context(), c.GetInt64(middleware.CtxTenantID), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

// Transition applies confirm, cancel, complete or no_show.
// @Summary Change booking status
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Booking ID" example(1)
// @Param body body TransitionBody true "Action and optional reason"
// @Success 200 {object} map[string]interface{} "Updated booking"
// @Failure 400 {object} map[string]interface{} "Invalid action"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Failure 403 {object} map[string]interface{} "Staff access required"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Failure 409 {object} map[string]interface{} "Transition not allowed"
// @Router /api/v1/bookings/{id}/transitions [post]
func (h *Handler) Transition(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var body TransitionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(body); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid transition request", errs)
		return
	}
	action, err := ParseAction(body.Action)
	if err != nil {
		writeError(c, err)
		return
	}

	b, err := h.service.Transition(c.Request.Context(), TransitionRequest{
		TenantID:  c.GetInt64(middleware.CtxTenantID),
		BookingID: id,
		Action:    action,
		Actor:     actor(c),
		Reason:    body.Reason,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

// Reschedule moves a booking to a new interval.
// @Summary Reschedule booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path integer true "Booking ID" example(1)
// @Param body body RescheduleBody true "New date and interval"
// @Success 200 {object} map[string]interface{} "Moved booking"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Failure 403 {object} map[string]interface{} "Staff access required"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Failure 409 {object} map[string]interface{} "Slot taken or booking closed"
// @Failure 422 {object} map[string]interface{} "Outside availability"
// @Failure 503 {object} map[string]interface{} "Temporary failure, retry"
// @Router /api/v1/bookings/{id}/reschedule [post]
func (h *Handler) Reschedule(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var body RescheduleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(body); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid reschedule request", errs)
		return
	}
	date, iv, err := parseWhen(body.Date, body.StartTime, body.EndTime)
	if err != nil {
		writeError(c, err)
		return
	}

	b, err := h.service.Reschedule(c.Request.Context(), RescheduleRequest{
		TenantID:  c.GetInt64(middleware.CtxTenantID),
		BookingID: id,
		Date:      date,
		StartTime: iv.Start,
		EndTime:   iv.End,
		Staff:     middleware.IsStaff(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return 0, false
	}
	return id, true
}

func actor(c *gin.Context) string {
	if uid := c.GetInt64(middleware.CtxUserID); uid > 0 {
		return fmt.Sprintf("%s:%d", c.GetString(middleware.CtxRole), uid)
	}
	return "anonymous"
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrSlotConflict):
		response.Error(c, http.StatusConflict, "SLOT_CONFLICT", SlotConflictMessage)
	case errors.Is(err, ErrInvalidStateTransition):
		response.Error(c, http.StatusConflict, "INVALID_STATE_TRANSITION", err.Error())
	case errors.Is(err, ErrOutsideAvailability):
		response.Error(c, http.StatusUnprocessableEntity, "OUTSIDE_AVAILABILITY", "Requested time is outside the professional's availability")
	case errors.Is(err, ErrTransactionFailed):
		c.Header("Retry-After", "1")
		response.Error(c, http.StatusServiceUnavailable, "TRANSACTION_FAILED", "Temporary failure, please retry")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, timegrid.ErrInvalidTimeValue):
		response.Error(c, http.StatusBadRequest, "INVALID_TIME", err.Error())
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, availability.ErrInvalidAvailabilityException):
		response.Error(c, http.StatusUnprocessableEntity, "INVALID_AVAILABILITY_EXCEPTION", err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
