package booking

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes mounts the reservation endpoint. The group is
// expected to run optional auth so staff tokens are recognised.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.CreateBooking)
}

// RegisterStaffRoutes mounts booking management. The group must require
// a staff token.
func (h *Handler) RegisterStaffRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings/:id", h.GetBooking)
	rg.POST("/bookings/:id/transitions", h.Transition)
	rg.POST("/bookings/:id/reschedule", h.Reschedule)
}
