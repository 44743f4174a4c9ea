// Package sqlgraph classifies errors returned by the database drivers.
package sqlgraph

import (
	"errors"
	"strings"
)

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err) ||
		IsNotNullConstraintError(err)
}

// errorCoder is an interface for database errors that provide error codes.
// Implemented by: pq.Error, pgx.
type errorCoder interface {
	Code() string
}

// sqliteCoder is implemented by modernc.org/sqlite errors, whose Code is the
// extended SQLite result code.
type sqliteCoder interface {
	Code() int
}

// errorNumberer is an interface for database errors that provide numeric error codes.
// Implemented by: mysql.MySQLError (Number field via method).
type errorNumberer interface {
	Number() uint16
}

// sqlStateError is an interface for errors that provide SQLSTATE codes.
// Implemented by: pq.Error, pgx, and some MySQL drivers.
type sqlStateError interface {
	SQLState() string
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgNotNullViolation    = "23502"
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
	mysqlNotNull                = 1048
)

// SQLite extended result codes for constraint violations.
const (
	sqliteConstraintCheck      = 275
	sqliteConstraintForeignKey = 787
	sqliteConstraintNotNull    = 1299
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

type codes struct {
	pg     string
	mysql  []uint16
	sqlite []int
	text   []string
}

func (c codes) match(err error) bool {
	if err == nil {
		return false
	}
	// Check for SQLSTATE code (PostgreSQL, pgx)
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == c.pg {
		return true
	}
	// Check for PostgreSQL pq.Error code
	if e, ok := asError[errorCoder](err); ok && e.Code() == c.pg {
		return true
	}
	if e, ok := asError[sqliteCoder](err); ok {
		for _, code := range c.sqlite {
			if e.Code() == code {
				return true
			}
		}
	}
	// Check for MySQL error number
	if e, ok := asError[errorNumberer](err); ok {
		for _, num := range c.mysql {
			if e.Number() == num {
				return true
			}
		}
	}
	// Fallback to string matching for drivers that don't implement interfaces
	return containsAny(err.Error(), c.text...)
}

var (
	uniqueCodes = codes{
		pg:     pgUniqueViolation,
		mysql:  []uint16{mysqlDuplicateEntry},
		sqlite: []int{sqliteConstraintUnique, sqliteConstraintPrimaryKey},
		text: []string{
			"Error 1062",                 // MySQL (string fallback)
			"violates unique constraint", // Postgres (string fallback)
			"UNIQUE constraint failed",   // SQLite
		},
	}
	foreignKeyCodes = codes{
		pg:     pgForeignKeyViolation,
		mysql:  []uint16{mysqlForeignKeyParent, mysqlForeignKeyChild},
		sqlite: []int{sqliteConstraintForeignKey},
		text: []string{
			"Error 1451",                      // MySQL (Cannot delete or update a parent row)
			"Error 1452",                      // MySQL (Cannot add or update a child row)
			"violates foreign key constraint", // Postgres
			"FOREIGN KEY constraint failed",   // SQLite
		},
	}
	checkCodes = codes{
		pg:     pgCheckViolation,
		mysql:  []uint16{mysqlCheckConstraintViolate},
		sqlite: []int{sqliteConstraintCheck},
		text: []string{
			"Error 3819",                // MySQL
			"violates check constraint", // Postgres
			"CHECK constraint failed",   // SQLite
		},
	}
	notNullCodes = codes{
		pg:     pgNotNullViolation,
		mysql:  []uint16{mysqlNotNull},
		sqlite: []int{sqliteConstraintNotNull},
		text: []string{
			"Error 1048",                   // MySQL
			"violates not-null constraint", // Postgres
			"NOT NULL constraint failed",   // SQLite
		},
	}
)

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool {
	return uniqueCodes.match(err)
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	return foreignKeyCodes.match(err)
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	return checkCodes.match(err)
}

// IsNotNullConstraintError reports if the error resulted from a NULL written into a NOT NULL column.
func IsNotNullConstraintError(err error) bool {
	return notNullCodes.match(err)
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
