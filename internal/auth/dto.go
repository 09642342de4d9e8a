package auth

import (
	"github.com/reportello/reportello-backend/internal/users"
)

// LoginRequest carries the password login payload. The identifier is a
// username, not an email; resolution to the account happens server side.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// GoogleLoginRequest carries the Google ID token minted by the sign-in popup.
type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// RefreshRequest rotates a session. The access token may be expired; only its
// signature and session id are inspected.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LoginResponse is shared by password and Google logins.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}

// RefreshResponse returns the rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
