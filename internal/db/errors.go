package db

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorFields extracts driver specific detail from err as log key/value pairs.
func ErrorFields(err error) []any {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return []any{
			"sqlstate", pgErr.Code,
			"table", pgErr.TableName,
			"constraint", pgErr.ConstraintName,
			"detail", pgErr.Detail,
		}
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return []any{"mysql_error", myErr.Number, "detail", myErr.Message}
	}
	return nil
}

// isMissingTable reports whether err says the queried table does not exist.
func isMissingTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1146
	}
	return strings.Contains(err.Error(), "no such table")
}
