package db

import "strings"

// IsUniqueViolation reports whether the provided error references a unique
// violation constraint, on either the Postgres or the SQLite driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
