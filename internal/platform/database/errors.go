package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	// PostgRESTMissingColumnCode is reported by PostgREST when a payload names a column
	// that is not in its schema cache.
	PostgRESTMissingColumnCode = "PGRST204"
	// PostgresUndefinedColumnCode is SQLSTATE undefined_column.
	PostgresUndefinedColumnCode = "42703"
)

// CodedError is a backend error carrying a machine readable code.
type CodedError struct {
	Code    string
	Message string
}

func (e *CodedError) Error() string {
	return e.Code + ": " + e.Message
}

// IsMissingColumn reports whether err means the target table lacks one of the written
// columns. Callers retry the write with a reduced field set.
func IsMissingColumn(err error) bool {
	if err == nil {
		return false
	}

	var coded *CodedError
	if errors.As(err, &coded) && coded.Code == PostgRESTMissingColumnCode {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == PostgresUndefinedColumnCode {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == PostgresUndefinedColumnCode {
		return true
	}

	// SQLite reports schema drift only through its message.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such column") || strings.Contains(msg, "has no column named")
}
