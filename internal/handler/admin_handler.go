package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-reservation/internal/application"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/middleware"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/response"
)

// BookingStatsProvider reports booking counts for the admin dashboard.
type BookingStatsProvider interface {
	GetBookingStats(ctx context.Context) (*application.BookingStatsDTO, error)
}

// AdminBookingHandler handles admin HTTP requests for booking management.
type AdminBookingHandler struct {
	service BookingStatsProvider
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service BookingStatsProvider) *AdminBookingHandler {
	return &AdminBookingHandler{service: service}
}

// RegisterRoutes registers admin booking routes.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/stats/bookings", h.BookingStats)
	}
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
