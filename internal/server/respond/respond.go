// Package respond holds the response envelope shared by every HTTP handler.
// Success bodies are {"errorCode": "", "data": {...}}; error bodies carry a
// stable machine-readable errorCode and a null data field.
package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes returned in the envelope. Clients branch on these, never on the
// human-readable message.
const (
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeReplayDetected     = "TOKEN_REPLAY_DETECTED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeEmailTaken         = "EMAIL_ALREADY_REGISTERED"
	CodeValidation         = "VALIDATION_ERROR"
	CodeInternal           = "INTERNAL"
)

// Success writes a 200 envelope with the given data.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"errorCode": "",
		"data":      data,
	})
}

// Error writes an error envelope with the given HTTP status and error code.
func Error(c *gin.Context, httpStatus int, code, message string) {
	c.JSON(httpStatus, gin.H{
		"errorCode": code,
		"message":   message,
		"data":      nil,
	})
}

// AbortError writes an error envelope and aborts the handler chain.
func AbortError(c *gin.Context, httpStatus int, code, message string) {
	c.AbortWithStatusJSON(httpStatus, gin.H{
		"errorCode": code,
		"message":   message,
		"data":      nil,
	})
}
