package catalog

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/professionals/:id", h.GetProfessional)
	r.GET("/services/:id", h.GetService)
}

// RegisterStaffRoutes mounts catalog management; the group must require staff.
func (h *Handler) RegisterStaffRoutes(r *gin.RouterGroup) {
	r.POST("/professionals", h.CreateProfessional)
	r.POST("/services", h.CreateService)
}
