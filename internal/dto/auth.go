package dto

import "github.com/SscSPs/storefront_app/internal/core/domain"

// RegisterRequest is the email signup form.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,password"`
	Username string `json:"username" binding:"omitempty,max=64"`
	Name     string `json:"name" binding:"omitempty,max=128"`
}

// LoginRequest accepts an email or a username in Email.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CompleteProfileRequest lets an OAuth identity supply the email its provider withheld.
type CompleteProfileRequest struct {
	Source   domain.Source `json:"source"`
	Email    string        `json:"email" binding:"required,email"`
	Username string        `json:"username" binding:"omitempty,max=64"`
}

// ResetPasswordRequest starts the reset flow.
type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// UpdatePasswordRequest completes the reset flow.
type UpdatePasswordRequest struct {
	Password string `json:"password" binding:"required,password"`
}

// ChangeEmailRequest replaces the identity's email. Password is required for email accounts.
type ChangeEmailRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password"`
}

// CaptchaFields is embedded by forms guarded by captcha.
type CaptchaFields struct {
	Recaptcha string `json:"recaptcha"`
}
