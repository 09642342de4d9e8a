package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/reportello/reportello-backend/pkg/db/models"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	IsActive    bool       `json:"is_active"`
	IsMaster    bool       `json:"is_master"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Username     string
	Email        string
	Name         string
	PasswordHash *string
	GoogleSub    *string
	IsMaster     bool
	IsActive     *bool
}

// UpdateUserDTO carries the partial update set. Nil fields are untouched.
type UpdateUserDTO struct {
	Username *string
	Email    *string
	Name     *string
	IsActive *bool
	IsMaster *bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Name:        u.Name,
		IsActive:    u.IsActive,
		IsMaster:    u.IsMaster,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	return &models.User{
		Username:     c.Username,
		Email:        c.Email,
		Name:         c.Name,
		PasswordHash: c.PasswordHash,
		GoogleSub:    c.GoogleSub,
		IsActive:     isActive,
		IsMaster:     c.IsMaster,
	}
}

func (u UpdateUserDTO) changes() map[string]any {
	changes := map[string]any{}
	if u.Username != nil {
		changes["username"] = *u.Username
	}
	if u.Email != nil {
		changes["email"] = *u.Email
	}
	if u.Name != nil {
		changes["name"] = *u.Name
	}
	if u.IsActive != nil {
		changes["is_active"] = *u.IsActive
	}
	if u.IsMaster != nil {
		changes["is_master"] = *u.IsMaster
	}
	return changes
}
