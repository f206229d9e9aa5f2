package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"streamhub/internal/domain"
	"streamhub/internal/middleware"
	"streamhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const refreshTokenCookie = "refreshToken"

// Handler manages all HTTP interactions for sessions
type Handler struct {
	service        *Service
	cookieSecure   bool
	cookieSameSite string
	cookiePath     string
}

// NewHandler creates a new session handler with injected service
func NewHandler(service *Service, cookieSecure bool, cookieSameSite, cookiePath string) *Handler {
	return &Handler{
		service:        service,
		cookieSecure:   cookieSecure,
		cookieSameSite: cookieSameSite,
		cookiePath:     cookiePath,
	}
}

// Login
// @Summary		Log in
// @Description	Authenticates by handle or email and password. Returns both tokens and mirrors them into httpOnly cookies.
// @Tags		Auth
// @Accept		json
// @Produce		json
// @Param		body	body	LoginRequest	true	"credentials"
// @Router		/users/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "You must provide a handle or email and a password")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	h.setTokenCookies(c, &result.TokenPair)
	response.Success(c, http.StatusOK, gin.H{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
		"account":      result.Account,
	})
}

// Logout
// @Summary		Log out
// @Description	Clears the stored refresh token and both cookies.
// @Tags		Auth
// @Security	BearerAuth
// @Router		/users/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	accountID := middleware.AccountID(c)
	if accountID == 0 {
		response.FromError(c, domain.ErrUnauthenticated)
		return
	}

	if err := h.service.Logout(c.Request.Context(), accountID); err != nil {
		response.FromError(c, err)
		return
	}

	h.clearTokenCookies(c)
	response.Success(c, http.StatusOK, gin.H{"message": "Logged out"})
}

// RefreshTokens
// @Summary		Rotate tokens
// @Description	Exchanges the refresh token from the cookie (or body) for a new pair. A token can be used once.
// @Tags		Auth
// @Accept		json
// @Produce		json
// @Param		body	body	RefreshRequest	false	"refresh token when no cookie is sent"
// @Router		/users/refresh-tokens [post]
func (h *Handler) RefreshTokens(c *gin.Context) {
	token, _ := c.Cookie(refreshTokenCookie)
	if strings.TrimSpace(token) == "" {
		var req RefreshRequest
		// The body is optional; a missing or empty body is not an error here.
		_ = c.ShouldBindJSON(&req)
		token = req.RefreshToken
	}

	pair, err := h.service.Refresh(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenReused) || errors.Is(err, domain.ErrInvalidToken) {
			h.clearTokenCookies(c)
		}
		response.FromError(c, err)
		return
	}

	h.setTokenCookies(c, pair)
	response.Success(c, http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// ChangePassword
// @Summary		Change password
// @Tags		Auth
// @Security	BearerAuth
// @Accept		json
// @Param		body	body	ChangePasswordRequest	true	"old and new password"
// @Router		/users/change-password [patch]
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "oldPassword, newPassword and confirmPassword are required")
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), middleware.AccountID(c), req); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func (h *Handler) setTokenCookies(c *gin.Context, pair *TokenPair) {
	c.SetSameSite(parseSameSite(h.cookieSameSite))
	c.SetCookie(middleware.AccessTokenCookie, pair.AccessToken, maxAge(pair.AccessExpiresAt), h.cookiePath, "", h.cookieSecure, true)
	c.SetCookie(refreshTokenCookie, pair.RefreshToken, maxAge(pair.RefreshExpiresAt), h.cookiePath, "", h.cookieSecure, true)
}

func (h *Handler) clearTokenCookies(c *gin.Context) {
	c.SetSameSite(parseSameSite(h.cookieSameSite))
	c.SetCookie(middleware.AccessTokenCookie, "", -1, h.cookiePath, "", h.cookieSecure, true)
	c.SetCookie(refreshTokenCookie, "", -1, h.cookiePath, "", h.cookieSecure, true)
}

func maxAge(expiresAt time.Time) int {
	secs := int(time.Until(expiresAt).Seconds())
	if secs < 1 {
		return 1
	}
	return secs
}

func parseSameSite(mode string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
