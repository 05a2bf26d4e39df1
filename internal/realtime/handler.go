package realtime

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"clinicbook/internal/pkg/jwt"
	"clinicbook/internal/pkg/response"
)

type Handler struct {
	hub        *Hub
	jwtService *jwt.Service
	upgrader   websocket.Upgrader
	log        *zap.Logger
}

// NewHandler accepts any origin when allowedOrigins is empty.
func NewHandler(hub *Hub, jwtService *jwt.Service, allowedOrigins []string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		hub:        hub,
		jwtService: jwtService,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/ws/professionals/:id", h.Watch)
}

// Watch streams booking events of one professional.
//
// Endpoint: GET /ws/professionals/:id?token=JWT
// Browsers cannot set headers on websocket requests, so the token travels
// in the query string. Only staff tokens are accepted.
func (h *Handler) Watch(c *gin.Context) {
	professionalID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || professionalID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid professional ID")
		return
	}

	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "TOKEN_MISSING", "Token is required. Use ?token=YOUR_JWT_TOKEN")
		return
	}
	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}
	if !claims.IsStaff() {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Staff access required")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.hub.ServeWS(conn, claims.TenantID, []string{ProfessionalTopic(professionalID)})
}
