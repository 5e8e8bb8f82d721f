package dto

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints. The refresh token
// travels only in the HttpOnly cookie, never in the body.
type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	Username    string `json:"username"`
}

// MeResponse echoes the authenticated principal.
type MeResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}
