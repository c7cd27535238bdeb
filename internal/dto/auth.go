package dto

import "time"

// SignUpRequest registers a staff account.
type SignUpRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// SignInRequest exchanges credentials for a token.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse carries an issued token.
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Member    any       `json:"member"`
}

// RoleRequest assigns a staff role.
type RoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin manager waiter kitchen cashier"`
}

// VoiceRequest carries a speech transcript.
type VoiceRequest struct {
	Transcript string `json:"transcript" validate:"required"`
}
