package account

type RegisterRequest struct {
	Handle      string `form:"handle" json:"handle" validate:"required,max=30"`
	Email       string `form:"email" json:"email" validate:"required,email,max=255"`
	DisplayName string `form:"displayName" json:"displayName" validate:"required,max=100"`
	Password    string `form:"password" json:"password" validate:"required,max=72"`
}

// UpdateProfileRequest leaves a field untouched when it is empty.
type UpdateProfileRequest struct {
	DisplayName string `json:"displayName" validate:"omitempty,max=100"`
	Email       string `json:"email" validate:"omitempty,email,max=255"`
}
