package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/servicelink/service-booking/internal/application"
	"github.com/servicelink/service-booking/pkg/auth"
	"github.com/servicelink/service-booking/pkg/middleware"
	"github.com/servicelink/service-booking/pkg/response"
)

// AdminBookingHandler exposes the cross-participant views. Every route
// requires the admin role; admins never act as booking participants.
type AdminBookingHandler struct {
	bookings *application.BookingService
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(bookings *application.BookingService) *AdminBookingHandler {
	return &AdminBookingHandler{bookings: bookings}
}

// RegisterRoutes registers admin booking routes behind auth and the admin role.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/bookings", h.AllBookings)
		admin.GET("/stats/bookings", h.Stats)
		admin.GET("/providers/:id/earnings", h.ProviderEarnings)
	}
}

// AllBookings handles GET /api/v1/admin/bookings?page=&limit=.
func (h *AdminBookingHandler) AllBookings(c *gin.Context) {
	page, limit := parsePagination(c)
	items, total, err := h.bookings.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, items, total, page, limit)
}

// Stats handles GET /api/v1/admin/stats/bookings: counts by status and by
// payment status.
func (h *AdminBookingHandler) Stats(c *gin.Context) {
	stats, err := h.bookings.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

// ProviderEarnings handles GET /api/v1/admin/providers/:id/earnings.
func (h *AdminBookingHandler) ProviderEarnings(c *gin.Context) {
	providerID, ok := parseID(c)
	if !ok {
		return
	}
	earnings, err := h.bookings.ProviderEarnings(c.Request.Context(), providerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, earnings)
}
