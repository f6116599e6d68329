package httpapi

import "time"

type registerRequest struct {
	Username string `json:"username" validate:"max=64"`
	Password string `json:"password" validate:"max=72"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Pin      string `json:"pin" validate:"omitempty,numeric,max=12"`
	Avatar   string `json:"avatar" validate:"omitempty,max=512"`
}

type registerResponse struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	Email        *string `json:"email"`
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	PinVerified  bool    `json:"pin_verified"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	AccessToken string `json:"access_token"`
	PinVerified bool   `json:"pin_verified"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type profileResponse struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        *string   `json:"email"`
	PendingEmail *string   `json:"pending_email"`
	Verified     bool      `json:"verified"`
	IsActive     bool      `json:"is_active"`
	HasPin       bool      `json:"has_pin"`
	PinVerified  bool      `json:"pin_verified"`
	Avatar       *string   `json:"avatar"`
	CreatedAt    time.Time `json:"created_at"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,max=72"`
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type passwordResetConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,max=72"`
}

type changeEmailRequest struct {
	NewEmail string `json:"new_email" validate:"required,email,max=254"`
}

type pinRequest struct {
	Pin string `json:"pin" validate:"required,numeric,max=12"`
}

type changePinRequest struct {
	OldPin string `json:"old_pin" validate:"required"`
	NewPin string `json:"new_pin" validate:"required,numeric,max=12"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
