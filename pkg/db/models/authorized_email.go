package models

import "time"

// AuthorizedEmail is a Google sign-in allow-list entry keyed by lowercase
// email. Existence of the row is the authorization.
type AuthorizedEmail struct {
	Email        string    `gorm:"type:text;primaryKey"`
	AuthorizedAt time.Time `gorm:"column:authorized_at;not null"`
}
