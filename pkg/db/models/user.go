package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the account profile; credentials and profile live in one row since
// identity is first-party here.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string     `gorm:"type:text;not null;uniqueIndex"`
	Email        string     `gorm:"type:text;not null;uniqueIndex"`
	Name         string     `gorm:"type:text;not null"`
	PasswordHash *string    `gorm:"column:password_hash"`
	GoogleSub    *string    `gorm:"column:google_sub;uniqueIndex"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	IsMaster     bool       `gorm:"column:is_master;not null;default:false"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
