package auth

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterPublicRoutes(users *gin.RouterGroup) {
	users.POST("/login", h.Login)
	users.POST("/refresh-tokens", h.RefreshTokens)
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.POST("/logout", h.Logout)
	protected.PATCH("/change-password", h.ChangePassword)
	protected.POST("/change-password", h.ChangePassword)
}
