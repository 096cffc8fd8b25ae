package handler

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-reservation/internal/application"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/domain"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/middleware"
	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/response"
)

// BookingUseCases is the subset of the booking service the booking routes call.
type BookingUseCases interface {
	CreateBooking(ctx context.Context, requesterID uuid.UUID, req application.CreateBookingRequest) (*application.BookingDTO, error)
	DecideBooking(ctx context.Context, actorID, bookingID uuid.UUID, approve bool) (*application.BookingDTO, error)
	GetBooking(ctx context.Context, actorID, bookingID uuid.UUID) (*application.BookingDTO, error)
	ListBookings(ctx context.Context, role application.Role, userID uuid.UUID, state string, page domain.Page) ([]application.BookingDTO, error)
}

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service BookingUseCases
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service BookingUseCases) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookerBookings)
		bookings.GET("/owner", h.ListOwnerBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id", h.DecideBooking)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// DecideBooking handles PATCH /api/v1/bookings/:id?approved=true|false.
func (h *BookingHandler) DecideBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	approved, err := strconv.ParseBool(c.Query("approved"))
	if err != nil {
		response.BadRequest(c, "approved must be true or false")
		return
	}

	result, err := h.service.DecideBooking(c.Request.Context(), userID, bookingID, approved)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), userID, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListBookerBookings handles GET /api/v1/bookings.
func (h *BookingHandler) ListBookerBookings(c *gin.Context) {
	h.listBookings(c, application.RoleBooker)
}

// ListOwnerBookings handles GET /api/v1/bookings/owner.
func (h *BookingHandler) ListOwnerBookings(c *gin.Context) {
	h.listBookings(c, application.RoleOwner)
}

func (h *BookingHandler) listBookings(c *gin.Context, role application.Role) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	page, err := parsePagination(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ListBookings(c.Request.Context(), role, userID, c.DefaultQuery("state", "ALL"), page)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// parsePagination reads the from/size query parameters.
func parsePagination(c *gin.Context) (domain.Page, error) {
	from, err := strconv.Atoi(c.DefaultQuery("from", "0"))
	if err != nil || from < 0 {
		return domain.Page{}, fmt.Errorf("from must be a non-negative integer")
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(domain.DefaultPageLimit)))
	if err != nil || size < 1 || size > domain.MaxPageLimit {
		return domain.Page{}, fmt.Errorf("size must be between 1 and %d", domain.MaxPageLimit)
	}

	return domain.NewPage(from, size), nil
}
