package models

import (
	"time"

	"github.com/google/uuid"
)

// Report is a dated free-text visit report. Date stays a plain YYYY-MM-DD
// string: it is the logical sort/filter key and must round-trip exactly as
// stored, with no timezone interpretation.
type Report struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Date      string    `gorm:"type:text;not null;index"`
	Text      string    `gorm:"type:text;not null"`
	UserID    uuid.UUID `gorm:"type:uuid;column:user_id;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
