package httpapi

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// respondError logs and aborts with the standard error envelope.
func respondError(c *gin.Context, status int, code, message string, details any) {
	slog.Warn("HTTP: Request failed",
		"status", status,
		"code", code,
		"message", message,
		"path", c.Request.URL.Path,
		"request_id", c.GetString(requestIDKey))

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{Code: code, Message: message, Details: details},
	})
}
