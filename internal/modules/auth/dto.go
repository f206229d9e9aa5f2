package auth

import (
	"time"

	"streamhub/internal/domain"
)

// LoginRequest accepts the identifier either split into handle/email or as a
// single handleOrEmail field.
type LoginRequest struct {
	Handle        string `json:"handle"`
	Email         string `json:"email"`
	HandleOrEmail string `json:"handleOrEmail"`
	Password      string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"oldPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type LoginResult struct {
	TokenPair
	Account *domain.AccountPublic
}
