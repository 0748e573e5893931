package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/servicelink/service-booking/internal/application"
	bookingDomain "github.com/servicelink/service-booking/internal/domain/booking"
	"github.com/servicelink/service-booking/pkg/auth"
	"github.com/servicelink/service-booking/pkg/domain"
	"github.com/servicelink/service-booking/pkg/middleware"
	"github.com/servicelink/service-booking/pkg/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service      *application.BookingService
	summaryLimit int
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService, summaryLimit int) *BookingHandler {
	return &BookingHandler{service: service, summaryLimit: summaryLimit}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	// The summary is public; signed-in callers see their own bookings.
	public := r.Group("/api/v1/bookings")
	public.Use(middleware.OptionalAuthMiddleware(jwtManager))
	{
		public.GET("/summary", h.Summary)
	}

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/earnings/provider", h.ProviderEarnings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id/status", h.ChangeStatus)
		bookings.PATCH("/:id/reschedule", h.Reschedule)
		bookings.POST("/:id/pay", h.RecordPayment)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings?as=customer|provider.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	page, limit := parsePagination(c)

	var (
		result *domain.PaginatedResult[application.BookingDTO]
		err    error
	)
	switch c.DefaultQuery("as", auth.RoleCustomer) {
	case auth.RoleCustomer:
		result, err = h.service.ListForCustomer(c.Request.Context(), actor.ID, page, limit)
	case auth.RoleProvider:
		result, err = h.service.ListForProvider(c.Request.Context(), actor.ID, page, limit)
	default:
		response.BadRequest(c, "as must be customer or provider")
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := parseID(c)
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	result, err := h.service.GetForParticipant(c.Request.Context(), bookingID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ChangeStatus handles PATCH /api/v1/bookings/:id/status.
func (h *BookingHandler) ChangeStatus(c *gin.Context) {
	bookingID, ok := parseID(c)
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	var req application.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ChangeStatus(c.Request.Context(), bookingID, req.Status, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Reschedule handles PATCH /api/v1/bookings/:id/reschedule.
func (h *BookingHandler) Reschedule(c *gin.Context) {
	bookingID, ok := parseID(c)
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	var req application.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Reschedule(c.Request.Context(), bookingID, req.ScheduledAt, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RecordPayment handles POST /api/v1/bookings/:id/pay.
func (h *BookingHandler) RecordPayment(c *gin.Context) {
	bookingID, ok := parseID(c)
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	result, err := h.service.RecordPayment(c.Request.Context(), bookingID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ProviderEarnings handles GET /api/v1/bookings/earnings/provider.
func (h *BookingHandler) ProviderEarnings(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	result, err := h.service.ProviderEarnings(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Summary handles GET /api/v1/bookings/summary.
func (h *BookingHandler) Summary(c *gin.Context) {
	limit := h.summaryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "invalid limit")
			return
		}
		limit = n
	}

	var actor *bookingDomain.Actor
	if a, ok := actorFrom(c); ok {
		actor = &a
	}

	result, err := h.service.Summaries(c.Request.Context(), limit, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// actorFrom resolves the authenticated caller set by the auth middleware.
func actorFrom(c *gin.Context) (bookingDomain.Actor, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return bookingDomain.Actor{}, false
	}
	role, _ := middleware.GetUserRole(c)
	return bookingDomain.Actor{ID: userID, Admin: role == auth.RoleAdmin}, true
}

// parseID reads the :id path parameter, writing a 400 when it is malformed.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
