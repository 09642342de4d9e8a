package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role is the actor role carried in access tokens.
type Role string

const (
	// RoleUser is a standard account: owns and sees only its own reports.
	RoleUser Role = "user"
	// RoleMaster reads every report and administers accounts.
	RoleMaster Role = "master"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleMaster
}

// RoleFor maps the profile's master flag onto a token role.
func RoleFor(isMaster bool) Role {
	if isMaster {
		return RoleMaster
	}
	return RoleUser
}

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   Role
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
	jwt.RegisteredClaims
}
