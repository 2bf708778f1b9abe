package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsMissingColumn(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"postgrest", &CodedError{Code: "PGRST204", Message: "Could not find the 'sub_area_id' column"}, true},
		{"postgrest other code", &CodedError{Code: "PGRST116", Message: "no rows"}, false},
		{"pgx undefined column", fmt.Errorf("update profile: %w", &pgconn.PgError{Code: "42703"}), true},
		{"pgx unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"lib/pq undefined column", &pq.Error{Code: "42703"}, true},
		{"sqlite update", errors.New("no such column: sub_area_id"), true},
		{"sqlite insert", errors.New("table profiles has no column named sub_area"), true},
		{"generic", errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsMissingColumn(tc.err))
		})
	}
}
