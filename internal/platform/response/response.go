package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-reservation/internal/platform/domain"
)

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes a 200 response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// BadRequest writes a 400 response with a request validation message.
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Envelope{
		Error: &ErrorBody{Code: "BAD_REQUEST", Message: msg},
	})
}

// Unauthorized writes a 401 response.
func Unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{
		Error: &ErrorBody{Code: "UNAUTHORIZED", Message: msg},
	})
}

// Forbidden writes a 403 response.
func Forbidden(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusForbidden, Envelope{
		Error: &ErrorBody{Code: "FORBIDDEN", Message: msg},
	})
}

// Error maps err to a status code. Domain errors keep their code and message;
// anything else is reported as an opaque internal error.
func Error(c *gin.Context, err error) {
	de, ok := domain.AsDomainError(err)
	if !ok {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, Envelope{
			Error: &ErrorBody{Code: "INTERNAL_ERROR", Message: "internal server error"},
		})
		return
	}
	c.AbortWithStatusJSON(StatusFor(de.Kind), Envelope{
		Error: &ErrorBody{Code: de.Code, Message: de.Message},
	})
}

// StatusFor returns the HTTP status for a domain error kind.
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation, domain.KindInvalidState:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
