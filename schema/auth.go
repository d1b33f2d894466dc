package schema

import "strings"

// LoginRequest accepts OAuth2 password form fields or JSON. Email is an
// alias for username.
type LoginRequest struct {
	Username string `form:"username" json:"username" example:"ada@example.com"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password" binding:"required" example:"Str0ng!pass"`
}

// Identifier returns the lower-cased login identifier.
func (r LoginRequest) Identifier() string {
	id := r.Username
	if id == "" {
		id = r.Email
	}
	return strings.ToLower(strings.TrimSpace(id))
}

// RefreshRequest carries a refresh token when it is not sent as a cookie.
type RefreshRequest struct {
	RefreshToken string `form:"refresh_token" json:"refresh_token"`
}

// TokenResponse is returned by the login and refresh endpoints.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type" example:"bearer"`
	Role         string `json:"role" example:"patient"`
	ExpiresAt    int64  `json:"expires_at"`
}
