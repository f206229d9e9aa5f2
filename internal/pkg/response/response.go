package response

import (
	"errors"
	"net/http"

	"streamhub/internal/domain"

	"github.com/gin-gonic/gin"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

type mapping struct {
	target  error
	status  int
	code    string
	message string
}

// Order matters: the first sentinel matched by errors.Is wins.
var mappings = []mapping{
	{domain.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request"},
	{domain.ErrConflict, http.StatusConflict, "CONFLICT", "Handle or email is already registered"},
	{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "Account not found"},
	{domain.ErrBadCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid password"},
	{domain.ErrTokenReused, http.StatusUnauthorized, "REFRESH_TOKEN_REUSED", "Refresh token has already been used or revoked"},
	{domain.ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized request"},
	{domain.ErrTooManyAttempts, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "Too many failed attempts, try again later"},
}

// FromError writes the envelope for err using the domain error taxonomy.
// Anything unrecognised is a 500 and is attached to the gin context so the
// error logger picks it up.
func FromError(c *gin.Context, err error) {
	for _, m := range mappings {
		if !errors.Is(err, m.target) {
			continue
		}
		if m.target == domain.ErrValidation || m.target == domain.ErrConflict {
			ErrorWithDetails(c, m.status, m.code, m.message, details(err))
			return
		}
		Error(c, m.status, m.code, m.message)
		return
	}

	_ = c.Error(err)
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong on the server")
}

// details prefers per-field validation errors over the flat message.
func details(err error) any {
	var fe interface{ Fields() map[string]string }
	if errors.As(err, &fe) {
		return fe.Fields()
	}
	return err.Error()
}

// Status returns the HTTP status FromError would use for err.
func Status(err error) int {
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}
