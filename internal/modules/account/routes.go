package account

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterPublicRoutes(users *gin.RouterGroup) {
	users.POST("/register", h.Register)
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.GET("/current-user", h.CurrentUser)
	protected.PATCH("/update-user", h.UpdateUser)
	protected.PATCH("/update-user-avatar", h.UpdateAvatar)
	protected.PATCH("/update-user-cover-image", h.UpdateCoverImage)
}
