// Package response writes the JSON envelope shared by all handlers.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/servicelink/service-booking/pkg/domain"
)

// Envelope is the body of every response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorBody describes a failure.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta carries pagination details.
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// Success writes 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes 200 with items and pagination meta.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    items,
		Meta:    &Meta{Total: total, Page: page, Limit: limit, TotalPages: pages},
	})
}

// BadRequest writes 400 with msg.
func BadRequest(c *gin.Context, msg string) {
	abort(c, http.StatusBadRequest, string(domain.CodeValidation), msg)
}

// Unauthorized writes 401.
func Unauthorized(c *gin.Context) {
	abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
}

// Forbidden writes 403 with msg.
func Forbidden(c *gin.Context, msg string) {
	abort(c, http.StatusForbidden, string(domain.CodeForbidden), msg)
}

// TooManyRequests writes 429.
func TooManyRequests(c *gin.Context) {
	abort(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
}

// Error maps err to a status code. Unclassified errors become a generic 500.
func Error(c *gin.Context, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		_ = c.Error(err)
		abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "unexpected error")
		return
	}
	abort(c, StatusFor(de.Code), string(de.Code), de.Message)
}

// StatusFor returns the HTTP status for a domain error code.
func StatusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeInvalidState, domain.CodeInvalidTransition, domain.CodeConflict:
		return http.StatusConflict
	case domain.CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: msg},
	})
}
