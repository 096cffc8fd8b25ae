package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-reservation/internal/application"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/middleware"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/response"
)

// ItemBookingQueries is the subset of the booking service the item routes call.
type ItemBookingQueries interface {
	OwnerItemBookings(ctx context.Context, ownerID uuid.UUID) ([]application.ItemBookingsDTO, error)
	ItemBookingsForViewer(ctx context.Context, viewerID, itemID uuid.UUID) (*application.ItemBookingsDTO, error)
	SummaryForOwner(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]application.LastNextDTO, error)
	CanReview(ctx context.Context, userID, itemID uuid.UUID) (*application.ReviewEligibilityDTO, error)
}

// ItemHandler serves booking views of items.
type ItemHandler struct {
	service ItemBookingQueries
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(service ItemBookingQueries) *ItemHandler {
	return &ItemHandler{service: service}
}

// RegisterRoutes registers item booking routes.
func (h *ItemHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	items := r.Group("/api/v1/items")
	items.Use(middleware.AuthMiddleware(jwtManager))
	{
		items.GET("/bookings", h.OwnerItems)
		items.GET("/bookings/summary", h.Summary)
		items.GET("/:id/bookings", h.ItemBookings)
		items.GET("/:id/review-eligibility", h.ReviewEligibility)
	}
}

// OwnerItems handles GET /api/v1/items/bookings.
func (h *ItemHandler) OwnerItems(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.OwnerItemBookings(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Summary handles GET /api/v1/items/bookings/summary?ids=a,b.
func (h *ItemHandler) Summary(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	raw := c.Query("ids")
	if raw == "" {
		response.BadRequest(c, "ids is required")
		return
	}
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			response.BadRequest(c, "invalid item ID: "+part)
			return
		}
		ids = append(ids, id)
	}

	result, err := h.service.SummaryForOwner(c.Request.Context(), userID, ids)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ItemBookings handles GET /api/v1/items/:id/bookings.
func (h *ItemHandler) ItemBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid item ID")
		return
	}

	result, err := h.service.ItemBookingsForViewer(c.Request.Context(), userID, itemID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ReviewEligibility handles GET /api/v1/items/:id/review-eligibility.
func (h *ItemHandler) ReviewEligibility(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid item ID")
		return
	}

	result, err := h.service.CanReview(c.Request.Context(), userID, itemID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
