package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/servicelink/service-booking/internal/application"
	"github.com/servicelink/service-booking/pkg/auth"
	"github.com/servicelink/service-booking/pkg/middleware"
	"github.com/servicelink/service-booking/pkg/response"
)

// ReviewHandler handles HTTP requests for reviews.
type ReviewHandler struct {
	service *application.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(service *application.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// RegisterRoutes registers all review routes.
func (h *ReviewHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	reviews := r.Group("/api/v1/reviews")
	reviews.Use(authMW)
	{
		reviews.POST("", h.CreateReview)
		reviews.GET("/eligibility", h.Eligibility)
	}

	r.GET("/api/v1/listings/:id/reviews", h.ListForListing)
}

// CreateReview handles POST /api/v1/reviews.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	var req application.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateReview(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// Eligibility handles GET /api/v1/reviews/eligibility?listingId=.
func (h *ReviewHandler) Eligibility(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	listingID, err := strconv.ParseInt(c.Query("listingId"), 10, 64)
	if err != nil || listingID <= 0 {
		response.BadRequest(c, "listingId is required")
		return
	}

	result, err := h.service.Eligibility(c.Request.Context(), listingID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListForListing handles GET /api/v1/listings/:id/reviews.
func (h *ReviewHandler) ListForListing(c *gin.Context) {
	listingID, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.service.ListForListing(c.Request.Context(), listingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
