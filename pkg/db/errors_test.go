package db

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{
			"postgres duplicate key",
			fmt.Errorf(`ERROR: duplicate key value violates unique constraint "idx_users_username" (SQLSTATE 23505)`),
			true,
		},
		{
			"sqlite unique constraint",
			fmt.Errorf("UNIQUE constraint failed: users.username"),
			true,
		},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err); got != tc.want {
			t.Fatalf("%s: expected %v got %v", tc.name, tc.want, got)
		}
	}
}
