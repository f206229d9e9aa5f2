package domain

import (
	"strings"
	"time"
)

// Account is the identity root. PasswordHash and RefreshToken never leave the
// service layer; use Public() for anything returned to a caller.
type Account struct {
	ID                    int64      `json:"id"`
	Handle                string     `json:"handle"`
	Email                 string     `json:"email"`
	DisplayName           string     `json:"display_name"`
	PasswordHash          string     `json:"-"`
	AvatarURL             string     `json:"avatar_url"`
	CoverImageURL         string     `json:"cover_image_url,omitempty"`
	RefreshToken          *string    `json:"-"`
	RefreshTokenExpiresAt *time.Time `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// AccountPublic is the projection of Account safe to hand to clients.
type AccountPublic struct {
	ID            int64     `json:"id"`
	Handle        string    `json:"handle"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name"`
	AvatarURL     string    `json:"avatar_url"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (a *Account) Public() *AccountPublic {
	if a == nil {
		return nil
	}
	return &AccountPublic{
		ID:            a.ID,
		Handle:        a.Handle,
		Email:         a.Email,
		DisplayName:   a.DisplayName,
		AvatarURL:     a.AvatarURL,
		CoverImageURL: a.CoverImageURL,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// NormalizeIdentifier lowercases and trims a handle or email before any
// lookup or uniqueness check.
func NormalizeIdentifier(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
