package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"tomotachi/backend/internal/social"
)

// ErrorResponse is the failure envelope of every endpoint.
type ErrorResponse struct {
	Success bool         `json:"success" example:"false"`
	Code    int          `json:"code" example:"400"`
	Type    string       `json:"type" example:"error"`
	Message string       `json:"message" example:"identity \"ghost@example.com\" does not exist"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError describes one request field that failed validation.
type FieldError struct {
	Field string `json:"field" example:"Friends"`
	Rule  string `json:"rule" example:"len"`
}

var kindStatus = map[social.Kind]int{
	social.KindInvalidArgument:     http.StatusBadRequest,
	social.KindNotFound:            http.StatusBadRequest,
	social.KindSenderNotFound:      http.StatusBadRequest,
	social.KindBlockedRelationship: http.StatusConflict,
	social.KindStoreUnavailable:    http.StatusServiceUnavailable,
}

// statusFor maps an engine error to its HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	if status, ok := kindStatus[social.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, status int, message string, fields []FieldError) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Success: false,
		Code:    status,
		Type:    "error",
		Message: message,
		Errors:  fields,
	})
}

// respondError writes the envelope for an engine failure.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	message := err.Error()
	var engineErr *social.Error
	if errors.As(err, &engineErr) {
		message = engineErr.Message
	}
	if status >= http.StatusInternalServerError {
		// Driver details stay in the logs.
		message = http.StatusText(status)
	}
	abortWithError(c, status, message, nil)
}

// respondBindError writes a 400 listing the fields that failed validation.
func respondBindError(c *gin.Context, err error) {
	_ = c.Error(err).SetType(gin.ErrorTypeBind)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		abortWithError(c, http.StatusBadRequest, "malformed request body", nil)
		return
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	abortWithError(c, http.StatusBadRequest, "invalid request", fields)
}
