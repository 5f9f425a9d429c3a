package model

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type SessionResponse struct {
	RequiresAuth bool   `json:"requires_auth"`
	Visible      bool   `json:"visible"`
	Email        string `json:"email,omitempty"`
}
